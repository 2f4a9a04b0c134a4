// Package domain holds the types the rest of askdocs passes around:
// uploads and extracted documents, chunks and their vectors, conversation
// turns, answers and settings, plus the error values that classify
// failures and the messages users see for them.
//
// It imports only the standard library. Every other package may import
// domain; domain imports none of them.
package domain
