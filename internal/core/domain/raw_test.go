package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDocument_FileName(t *testing.T) {
	tests := []struct {
		name string
		raw  RawDocument
		want string
	}{
		{"uri path", RawDocument{SourceID: "upload-1", URI: "/docs/guide.md"}, "guide.md"},
		{"source id when no uri", RawDocument{SourceID: "notes.txt"}, "notes.txt"},
		{"nested source id", RawDocument{SourceID: "a/b/report.pdf"}, "report.pdf"},
		{"nothing", RawDocument{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.raw.FileName())
		})
	}
}
