package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestNew_Defaults(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	assert.Equal(t, DefaultChunkSize, s.ChunkSize())
	assert.Equal(t, DefaultChunkOverlap, s.Overlap())
}

func TestNew_InvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"zero size", []Option{WithChunkSize(0)}},
		{"negative size", []Option{WithChunkSize(-5)}},
		{"negative overlap", []Option{WithOverlap(-1)}},
		{"overlap equals size", []Option{WithChunkSize(100), WithOverlap(100)}},
		{"overlap exceeds size", []Option{WithChunkSize(100), WithOverlap(150)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.opts...)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	for _, text := range []string{"", "   ", "\n\n\t "} {
		chunks, err := s.Split("doc", text)
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
		assert.Empty(t, chunks)
	}
}

func TestSplit_ShortText(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	chunks, err := s.Split("doc", "A short document.")
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "doc#0", chunks[0].ID)
	assert.Equal(t, "doc", chunks[0].SourceID)
	assert.Equal(t, "A short document.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].SequenceIndex)
}

func TestSplit_PrefersParagraphs(t *testing.T) {
	s, err := New(WithChunkSize(15), WithOverlap(0))
	require.NoError(t, err)

	chunks, err := s.Split("doc", "para one.\n\npara two.")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "para one.\n\n", chunks[0].Content)
	assert.Equal(t, "para two.", chunks[1].Content)
}

func TestSplit_HardCut(t *testing.T) {
	s, err := New(WithChunkSize(4), WithOverlap(1))
	require.NoError(t, err)

	chunks, err := s.Split("doc", "abcdefghij")
	require.NoError(t, err)

	assert.Equal(t, []string{"abcd", "defg", "ghij"}, contents(chunks))
}

func TestSplit_CountsRunes(t *testing.T) {
	s, err := New(WithChunkSize(2), WithOverlap(0))
	require.NoError(t, err)

	chunks, err := s.Split("doc", "ééééé")
	require.NoError(t, err)

	assert.Equal(t, []string{"éé", "éé", "é"}, contents(chunks))
}

func TestSplit_InvalidUTF8(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"only invalid bytes", strings.Repeat("\xff", 25)},
		{"invalid bytes between runes", strings.Repeat("é\xfe日", 9)},
		{"truncated rune", strings.Repeat("ab\xe6\x97", 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(WithChunkSize(10), WithOverlap(2))
			require.NoError(t, err)

			var chunks []domain.TextChunk
			require.NotPanics(t, func() {
				chunks, err = s.Split("doc", tt.text)
			})
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for _, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 10)
				assert.Contains(t, tt.text, c.Content)
			}
			assert.True(t, strings.HasPrefix(tt.text, chunks[0].Content))
			assert.True(t, strings.HasSuffix(tt.text, chunks[len(chunks)-1].Content))
		})
	}
}

func TestSplit_CustomSeparators(t *testing.T) {
	s, err := New(WithChunkSize(2), WithOverlap(0), WithSeparators("|"))
	require.NoError(t, err)

	chunks, err := s.Split("doc", "a|b|c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a|", "b|", "c"}, contents(chunks))
}

func TestSplit_Properties(t *testing.T) {
	text := longText()

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"defaults", DefaultChunkSize, DefaultChunkOverlap},
		{"small", 50, 10},
		{"no overlap", 120, 0},
		{"tiny", 8, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(WithChunkSize(tt.size), WithOverlap(tt.overlap))
			require.NoError(t, err)

			chunks, err := s.Split("doc", text)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			for i, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), tt.size)
				assert.Equal(t, i, c.SequenceIndex)

				start, end := offsets(c)
				assert.Equal(t, text[start:end], c.Content)

				if i == 0 {
					assert.Equal(t, 0, start)
					continue
				}
				prevStart, prevEnd := offsets(chunks[i-1])
				assert.Greater(t, start, prevStart)
				if start > prevEnd {
					assert.Empty(t, strings.TrimSpace(text[prevEnd:start]), "non-blank gap before chunk %d", i)
					continue
				}
				assert.LessOrEqual(t, utf8.RuneCountInString(text[start:prevEnd]), tt.overlap)
			}

			_, lastEnd := offsets(chunks[len(chunks)-1])
			assert.Empty(t, strings.TrimSpace(text[lastEnd:]))
		})
	}
}

func TestSplit_OverlapCarried(t *testing.T) {
	s, err := New(WithChunkSize(50), WithOverlap(10))
	require.NoError(t, err)

	chunks, err := s.Split("doc", strings.Repeat("alpha beta gamma delta ", 20))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		_, prevEnd := offsets(chunks[i-1])
		start, _ := offsets(chunks[i])
		assert.Less(t, start, prevEnd, "chunk %d should overlap its predecessor", i)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s, err := New(WithChunkSize(64), WithOverlap(16))
	require.NoError(t, err)

	first, err := s.Split("doc", longText())
	require.NoError(t, err)
	second, err := s.Split("doc", longText())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplit_DropsBlankChunks(t *testing.T) {
	s, err := New(WithChunkSize(4), WithOverlap(0))
	require.NoError(t, err)

	chunks, err := s.Split("doc", "ab\n\n\n\n\n\n\n\n\n\ncd")
	require.NoError(t, err)

	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c.Content))
	}
	for i, c := range chunks {
		assert.Equal(t, i, c.SequenceIndex)
	}
}

func contents(chunks []domain.TextChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func offsets(c domain.TextChunk) (int, int) {
	return c.Metadata[MetaStart].(int), c.Metadata[MetaEnd].(int)
}

func longText() string {
	var b strings.Builder
	for p := 0; p < 6; p++ {
		for l := 0; l < 4; l++ {
			b.WriteString("The retrieval step ranks chunks by similarity to the question. ")
			b.WriteString("Each answer is grounded in the top ranked context.\n")
		}
		b.WriteString("Überschrift café naïve résumé.\n\n")
	}
	return b.String()
}
