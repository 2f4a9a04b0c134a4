// Package normalisers holds one subpackage per document format and the
// helpers they share, so every format yields a Document with the same
// title rules, metadata keys and whitespace handling.
package normalisers
