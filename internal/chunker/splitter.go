// Package chunker splits extracted document text into overlapping chunks.
//
// The splitter is recursive: it cuts on the coarsest separator present
// (paragraphs, then lines, then sentences, then words) and only descends to
// a finer separator for pieces that are still longer than the chunk size.
// The final separator is the empty string, which cuts between characters.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.Chunker = (*Splitter)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSeparators are tried in order, coarsest first.
var DefaultSeparators = []string{"\n\n", "\n", ".", " ", ""}

// Metadata keys set on every chunk. Offsets are byte positions in the source text.
const (
	MetaStart = "start"
	MetaEnd   = "end"
)

// Splitter is a recursive character text splitter.
// Lengths are measured in characters (runes), not bytes.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// WithSeparators replaces the separator list. A trailing "" is added when missing
// so a hard cut is always possible.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		s.separators = append([]string(nil), seps...)
	}
}

// New creates a splitter. Sizes outside 0 <= overlap < size return ErrInvalidParameter.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidParameter, s.chunkSize)
	}
	if s.overlap < 0 || s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidParameter, s.overlap, s.chunkSize)
	}
	if len(s.separators) == 0 || s.separators[len(s.separators)-1] != "" {
		s.separators = append(s.separators, "")
	}

	return s, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split cuts text into chunks numbered from zero.
// Chunks that contain only whitespace are dropped.
func (s *Splitter) Split(sourceID, text string) ([]domain.TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	spans := s.splitSpan(text, piece{start: 0, end: len(text), n: utf8.RuneCountInString(text)}, s.separators)

	chunks := make([]domain.TextChunk, 0, len(spans))
	for _, sp := range spans {
		content := text[sp.start:sp.end]
		if isBlank(content) {
			continue
		}
		chunks = append(chunks, domain.TextChunk{
			ID:            fmt.Sprintf("%s#%d", sourceID, len(chunks)),
			SourceID:      sourceID,
			Content:       content,
			SequenceIndex: len(chunks),
			Metadata: map[string]any{
				MetaStart: sp.start,
				MetaEnd:   sp.end,
			},
		})
	}

	return chunks, nil
}

// piece is a contiguous byte range of the source text and its rune length.
type piece struct {
	start, end int
	n          int
}

// splitSpan splits one range with the first separator it contains,
// recursing with finer separators for pieces still over the limit.
func (s *Splitter) splitSpan(text string, sp piece, seps []string) []piece {
	segment := text[sp.start:sp.end]

	idx := len(seps) - 1
	for i, sep := range seps {
		if sep == "" || strings.Contains(segment, sep) {
			idx = i
			break
		}
	}
	sep, finer := seps[idx], seps[idx+1:]

	var out, fitting []piece
	for _, p := range cut(text, sp, sep) {
		if p.n <= s.chunkSize {
			fitting = append(fitting, p)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting)...)
			fitting = nil
		}
		if len(finer) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, s.splitSpan(text, p, finer)...)
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting)...)
	}

	return out
}

// merge packs consecutive pieces into chunks of at most chunkSize characters.
// Each new chunk starts with trailing pieces of the previous one totalling
// no more than overlap characters.
func (s *Splitter) merge(pieces []piece) []piece {
	var out, window []piece
	total := 0

	for _, p := range pieces {
		if total+p.n > s.chunkSize && len(window) > 0 {
			out = append(out, span(window))
			for total > s.overlap || (total+p.n > s.chunkSize && total > 0) {
				total -= window[0].n
				window = window[1:]
			}
		}
		window = append(window, p)
		total += p.n
	}
	if len(window) > 0 {
		out = append(out, span(window))
	}

	return out
}

// cut splits a range on sep, keeping the separator at the end of each piece.
// An empty sep cuts between characters.
func cut(text string, sp piece, sep string) []piece {
	var pieces []piece

	if sep == "" {
		for pos := sp.start; pos < sp.end; {
			_, width := utf8.DecodeRuneInString(text[pos:sp.end])
			pieces = append(pieces, piece{start: pos, end: pos + width, n: 1})
			pos += width
		}
		return pieces
	}

	pos := sp.start
	for pos < sp.end {
		i := strings.Index(text[pos:sp.end], sep)
		end := sp.end
		if i >= 0 {
			end = pos + i + len(sep)
		}
		pieces = append(pieces, piece{start: pos, end: end, n: utf8.RuneCountInString(text[pos:end])})
		pos = end
	}

	return pieces
}

// span returns the range covering a run of contiguous pieces.
func span(run []piece) piece {
	n := 0
	for _, p := range run {
		n += p.n
	}
	return piece{start: run[0].start, end: run[len(run)-1].end, n: n}
}

func isBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}
