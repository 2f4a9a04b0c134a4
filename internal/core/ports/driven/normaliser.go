package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// Normaliser extracts the text of one file format.
type Normaliser interface {
	// SupportedMIMETypes may include a wildcard subtype such as "text/*".
	SupportedMIMETypes() []string

	// Priority breaks ties between normalisers for the same type; the
	// highest wins. Format-specific normalisers use 50 to 89 and
	// catch-alls 1 to 9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the extracted document, not yet chunked.
type NormaliseResult struct {
	Document domain.Document
}

// NormaliserRegistry picks a normaliser by MIME type.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when nothing
	// handles the document's type.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	Register(normaliser Normaliser)

	// SupportedMIMETypes lists every type some normaliser accepts.
	SupportedMIMETypes() []string
}
