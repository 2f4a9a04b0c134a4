// Package services holds the question-answering pipeline.
//
// SessionService owns the single conversation: Process runs extract, chunk,
// embed and index as one all-or-nothing build, and Ask runs retrieve, then
// answer, then record. Retriever and AnswerGenerator are the two halves of
// Ask and are usable on their own. SettingsService reads and writes the
// persisted configuration.
//
// Everything here talks to infrastructure only through the driven ports.
package services
