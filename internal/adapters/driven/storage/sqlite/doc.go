// Package sqlite keeps the vector index and the conversation memory in one
// SQLite database, using the pure Go modernc.org/sqlite driver.
//
// Chunks and their embeddings live in the chunks table and are searched by
// brute-force cosine similarity. Turns live in the turns table in arrival
// order. Every index write runs in one transaction, so a failed Upsert or
// Replace leaves the previous contents in place.
//
// The schema is versioned by the migrations package and recorded in
// PRAGMA user_version. The database defaults to ~/.askdocs/data/askdocs.db.
package sqlite
