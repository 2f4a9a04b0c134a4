// Package html extracts readable text from HTML and XHTML pages, one
// paragraph per block element, dropping scripts, styles and markup.
package html
