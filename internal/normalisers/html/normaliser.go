package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML page to plain text.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrInvalidInput, err)
	}

	title := findTitle(root)
	if title == "" {
		title = normalisers.Title(raw)
	}

	content := normalisers.CleanText(extractText(root))
	doc := normalisers.NewDocument(raw, title, content, "html")

	return &driven.NormaliseResult{
		Document: doc,
	}, nil
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
}

// blocks end a paragraph.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Main: true, atom.Header: true, atom.Footer: true, atom.Nav: true,
	atom.Aside: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Figure: true, atom.Hr: true, atom.Body: true,
}

// lines end a line but not a paragraph.
var lines = map[atom.Atom]bool{
	atom.Li: true, atom.Tr: true, atom.Dt: true, atom.Dd: true, atom.Br: true, atom.Figcaption: true,
}

// textWriter defers spaces until the next word so whitespace is never
// doubled and lines never start or end with a space.
type textWriter struct {
	buf     strings.Builder
	pending bool
	last    byte
}

func (w *textWriter) write(s string) {
	if s == "" {
		return
	}
	if w.pending && w.last != 0 && w.last != '\n' {
		w.buf.WriteByte(' ')
	}
	w.pending = false
	w.buf.WriteString(s)
	w.last = s[len(s)-1]
}

func (w *textWriter) space() {
	w.pending = true
}

// collapsed writes s with every whitespace run reduced to one space.
func (w *textWriter) collapsed(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			w.space()
		}
		return
	}
	if isSpace(s[0]) {
		w.space()
	}
	w.write(strings.Join(fields, " "))
	if isSpace(s[len(s)-1]) {
		w.space()
	}
}

func (w *textWriter) newline(n int) {
	w.pending = false
	if w.last == 0 {
		return
	}
	w.buf.WriteString(strings.Repeat("\n", n))
	w.last = '\n'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

// extractText renders the text under n. Whitespace inside text runs collapses
// as a browser would, except inside <pre>.
func extractText(n *html.Node) string {
	w := &textWriter{}

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				w.write(n.Data)
			} else {
				w.collapsed(n.Data)
			}
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Pre {
				pre = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}

		if n.Type == html.ElementNode {
			switch {
			case blocks[n.DataAtom]:
				w.newline(2)
			case lines[n.DataAtom]:
				w.newline(1)
			case n.DataAtom == atom.Td || n.DataAtom == atom.Th:
				w.space()
			}
		}
	}
	walk(n, false)

	return w.buf.String()
}

// findTitle returns the <title> text, or the first <h1> when the page has none.
func findTitle(root *html.Node) string {
	if t := findElement(root, atom.Title); t != nil {
		if title := strings.Join(strings.Fields(textContent(t)), " "); title != "" {
			return title
		}
	}
	if h := findElement(root, atom.H1); h != nil {
		return strings.Join(strings.Fields(textContent(h)), " ")
	}
	return ""
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return buf.String()
}
