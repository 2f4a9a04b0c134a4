// Package plaintext extracts text from plain and structured text formats.
// It also serves as the fallback for any text/* type without its own
// normaliser.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// formats maps handled MIME types to the "format" metadata value.
var formats = map[string]string{
	"text/plain":         "text",
	"text/*":             "text",
	"text/csv":           "csv",
	"text/x-log":         "log",
	"text/x-rst":         "rst",
	"application/json":   "json",
	"application/xml":    "xml",
	"application/x-yaml": "yaml",
	"application/toml":   "toml",
}

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8 << 10

// Normaliser keeps the text as written, after decoding it to UTF-8.
type Normaliser struct{}

// New returns a plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes includes "text/*".
func (n *Normaliser) SupportedMIMETypes() []string {
	types := make([]string, 0, len(formats))
	for mt := range formats {
		types = append(types, mt)
	}
	return types
}

// Priority is the lowest of the built-in normalisers.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise decodes raw.Content and tidies line endings and blank runs.
// UTF-16 is recognised by its byte order mark. Bytes that are not valid
// UTF-8 are read as Windows-1252. Content with NUL bytes is refused.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, encoding, err := decode(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrUnsupportedType, raw.FileName(), err)
	}

	format, ok := formats[raw.MIMEType]
	if !ok {
		format = "text"
	}
	doc := normalisers.NewDocument(raw, normalisers.Title(raw), normalisers.CleanText(text), format)
	doc.Metadata["encoding"] = encoding

	return &driven.NormaliseResult{Document: doc}, nil
}

func decode(b []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(b, []byte{0xFF, 0xFE}), bytes.HasPrefix(b, []byte{0xFE, 0xFF}):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), b)
		if err != nil {
			return "", "", fmt.Errorf("decode UTF-16: %w", err)
		}
		return string(out), "utf-16", nil
	case bytes.IndexByte(b[:min(len(b), sniffLen)], 0) >= 0:
		return "", "", fmt.Errorf("binary content")
	case utf8.Valid(b):
		return string(bytes.TrimPrefix(b, []byte("\xEF\xBB\xBF"))), "utf-8", nil
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(b)
		if err != nil {
			return "", "", fmt.Errorf("decode Windows-1252: %w", err)
		}
		return string(out), "windows-1252", nil
	}
}
