package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the paragraph and table text of a DOCX document.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader := bytes.NewReader(raw.Content)
	parsed, err := docx.Parse(reader, int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse docx: %v", domain.ErrInvalidInput, err)
	}

	var buf strings.Builder
	heading := ""
	for _, item := range parsed.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			text := paragraphText(v)
			if text == "" {
				continue
			}
			if heading == "" && isTitleStyle(v) {
				heading = text
			}
			buf.WriteString(text)
			buf.WriteString("\n\n")
		case *docx.Table:
			writeTable(&buf, v)
			buf.WriteString("\n")
		}
	}

	title := coreTitle(raw.Content)
	if title == "" {
		title = heading
	}
	if title == "" {
		title = normalisers.Title(raw)
	}

	content := normalisers.CleanText(buf.String())
	doc := normalisers.NewDocument(raw, title, content, "docx")

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// paragraphText joins the text runs of a paragraph, including hyperlink labels.
func paragraphText(p *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range p.Children {
		switch c := child.(type) {
		case *docx.Run:
			writeRun(&buf, c)
		case *docx.Hyperlink:
			writeRun(&buf, &c.Run)
		}
	}
	return strings.TrimSpace(buf.String())
}

func writeRun(buf *strings.Builder, r *docx.Run) {
	for _, child := range r.Children {
		switch c := child.(type) {
		case *docx.Text:
			buf.WriteString(c.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
}

// writeTable writes one line per row with cells separated by " | ".
func writeTable(buf *strings.Builder, t *docx.Table) {
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			parts := make([]string, 0, len(cell.Paragraphs))
			for _, p := range cell.Paragraphs {
				if text := paragraphText(p); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		line := strings.TrimSpace(strings.Join(cells, " | "))
		if strings.Trim(line, "| ") == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
}

// isTitleStyle reports whether the paragraph uses the Title or first heading style.
func isTitleStyle(p *docx.Paragraph) bool {
	if p.Properties == nil || p.Properties.Style == nil {
		return false
	}
	switch strings.ToLower(strings.ReplaceAll(p.Properties.Style.Val, " ", "")) {
	case "title", "heading1":
		return true
	}
	return false
}

// coreProperties is the part of docProps/core.xml we read.
type coreProperties struct {
	Title string `xml:"title"`
}

// coreTitle reads dc:title from docProps/core.xml, which go-docx does not parse.
func coreTitle(content []byte) string {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return ""
	}
	for _, file := range reader.File {
		if file.Name != "docProps/core.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return ""
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		var core coreProperties
		if err := xml.Unmarshal(data, &core); err != nil {
			return ""
		}
		return strings.TrimSpace(core.Title)
	}
	return ""
}
