package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLength bounds a first line used as the title.
const maxTitleLength = 200

// Normaliser extracts the text layer of PDF documents.
// Scanned PDFs without a text layer produce an empty document.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page. Pages are separated by a blank line.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, info, err := extractPages(ctx, raw.Content)
	if err != nil {
		return nil, err
	}

	content := normalisers.CleanText(strings.Join(pages, "\n\n"))

	title := info
	if title == "" {
		title = extractTitle(content, "")
	}
	if title == "" {
		title = normalisers.Title(raw)
	}

	doc := normalisers.NewDocument(raw, title, content, "pdf")
	doc.Metadata["page_count"] = len(pages)

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// extractPages returns the text of each page and the Info dictionary title.
// The PDF library panics on some malformed files, so panics become ErrInvalidInput.
func extractPages(ctx context.Context, content []byte) (pages []string, title string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, title = nil, ""
			err = fmt.Errorf("%w: malformed pdf: %v", domain.ErrInvalidInput, r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	title = strings.TrimSpace(reader.Trailer().Key("Info").Key("Title").Text())

	fonts := make(map[string]*pdflib.Font)
	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("pdf page %d: %v", i, err)
			continue
		}
		pages = append(pages, text)
	}

	return pages, title, nil
}

// extractTitle returns the first non-empty line of content short enough to be
// a title, otherwise the name derived from uri.
func extractTitle(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "\x00"))
		if line == "" {
			continue
		}
		if len(line) <= maxTitleLength {
			return line
		}
	}
	if uri == "" {
		return ""
	}
	return normalisers.TitleFromURI(uri)
}
