package domain

import "path/filepath"

// RawDocument is one uploaded file before text extraction. Only the
// extracted Document outlives the build.
type RawDocument struct {
	SourceID string
	URI      string
	MIMEType string
	Content  []byte

	// Metadata is set by the surface that received the upload. A "title"
	// entry overrides the title derived from the file name.
	Metadata map[string]any
}

// FileName is the name used to guess the format and title: the base of
// URI, or SourceID when there is no URI.
func (r *RawDocument) FileName() string {
	name := r.URI
	if name == "" {
		name = r.SourceID
	}
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}
