// Package connectors provides loaders that turn external document sources
// into domain.RawDocument values ready for indexing.
//
// Loaders report unreadable documents as failures instead of aborting, so a
// single bad file never blocks the rest of an upload.
package connectors
