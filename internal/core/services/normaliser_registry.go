package services

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure NormaliserRegistry implements the interface.
var _ driven.NormaliserRegistry = (*NormaliserRegistry)(nil)

// NormaliserRegistry dispatches documents to the highest priority normaliser
// registered for their MIME type.
type NormaliserRegistry struct {
	mu     sync.RWMutex
	byType map[string][]driven.Normaliser
}

// NewNormaliserRegistry creates a registry with the given normalisers.
func NewNormaliserRegistry(normalisers ...driven.Normaliser) *NormaliserRegistry {
	r := &NormaliserRegistry{
		byType: make(map[string][]driven.Normaliser),
	}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser for each of its MIME types.
func (r *NormaliserRegistry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, mt := range n.SupportedMIMETypes() {
		mt = baseMIMEType(mt)
		list := append(r.byType[mt], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byType[mt] = list
	}
}

// SupportedMIMETypes returns every registered MIME type, sorted.
func (r *NormaliserRegistry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.byType))
	for mt := range r.byType {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Normalise extracts text with the best normaliser for raw.
// A missing MIME type is inferred from the URI extension, then from the content.
func (r *NormaliserRegistry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	mt := DetectMIMEType(raw)

	r.mu.RLock()
	candidates := r.byType[mt]
	if len(candidates) == 0 {
		if major, _, ok := strings.Cut(mt, "/"); ok {
			candidates = r.byType[major+"/*"]
		}
	}
	r.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, mt)
	}

	normalised := *raw
	normalised.MIMEType = mt
	return candidates[0].Normalise(ctx, &normalised)
}

// DetectMIMEType returns the document's base MIME type.
func DetectMIMEType(raw *domain.RawDocument) string {
	if raw.MIMEType != "" && raw.MIMEType != "application/octet-stream" {
		return baseMIMEType(raw.MIMEType)
	}
	if ext := strings.ToLower(filepath.Ext(raw.FileName())); ext != "" {
		if mt, ok := extensionTypes[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			return baseMIMEType(mt)
		}
	}
	return baseMIMEType(http.DetectContentType(raw.Content))
}

// extensionTypes covers formats whose system MIME mapping varies by platform.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".pdf":      "application/pdf",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func baseMIMEType(mt string) string {
	if base, _, err := mime.ParseMediaType(mt); err == nil {
		return base
	}
	base, _, _ := strings.Cut(mt, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
