package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

func newPrompts(t *testing.T, files map[string]string) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	store, err := NewPromptStore(dir)
	require.NoError(t, err)
	return store, dir
}

func builtin(t *testing.T, name string) string {
	t.Helper()
	p, ok := DefaultPrompt(name)
	require.True(t, ok, "no built-in %s", name)
	return p
}

func TestNewPromptStore_Dir(t *testing.T) {
	store, dir := newPrompts(t, nil)
	assert.Equal(t, dir, store.Dir())

	home := t.TempDir()
	t.Setenv("HOME", home)
	store, err := NewPromptStore("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".askdocs", "prompts"), store.Dir())

	_, err = os.Stat(store.Dir())
	assert.True(t, os.IsNotExist(err), "constructor does no I/O")
}

func TestDefaultPrompt(t *testing.T) {
	grounding := builtin(t, driven.PromptGrounding)
	for _, p := range []string{"{context}", "{history}", "{question}", "{fallback}"} {
		assert.Contains(t, grounding, p)
	}

	condense := builtin(t, driven.PromptCondense)
	assert.Contains(t, condense, "{history}")
	assert.Contains(t, condense, "{question}")

	system := builtin(t, driven.PromptSystem)
	assert.Contains(t, system, "Based on the provided context: ")
	assert.NotContains(t, system, "{")

	_, ok := DefaultPrompt("README")
	assert.False(t, ok, "only .txt files are prompts")
}

func TestPromptStore_Load(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		prompt string
		want   string
	}{
		{
			name:   "built-in when no file",
			prompt: driven.PromptSystem,
			want:   "<builtin>",
		},
		{
			name:   "user template",
			files:  map[string]string{"grounding.txt": "Q: {question}\nC: {context}"},
			prompt: driven.PromptGrounding,
			want:   "Q: {question}\nC: {context}",
		},
		{
			name:   "surrounding whitespace trimmed",
			files:  map[string]string{"system.txt": "\n\n  be brief  \n\n"},
			prompt: driven.PromptSystem,
			want:   "be brief",
		},
		{
			name:   "blank file uses built-in",
			files:  map[string]string{"system.txt": "  \n"},
			prompt: driven.PromptSystem,
			want:   "<builtin>",
		},
		{
			name:   "missing required placeholder uses built-in",
			files:  map[string]string{"grounding.txt": "Answer {question}"},
			prompt: driven.PromptGrounding,
			want:   "<builtin>",
		},
		{
			name:   "condense without history uses built-in",
			files:  map[string]string{"condense.txt": "Rewrite {question}"},
			prompt: driven.PromptCondense,
			want:   "<builtin>",
		},
		{
			name:   "extra prompt from disk",
			files:  map[string]string{"tone.txt": "formal"},
			prompt: "tone",
			want:   "formal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newPrompts(t, tt.files)

			got, err := store.Load(tt.prompt)
			require.NoError(t, err)

			want := tt.want
			if want == "<builtin>" {
				want = builtin(t, tt.prompt)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestPromptStore_Load_Unknown(t *testing.T) {
	store, _ := newPrompts(t, nil)

	_, err := store.Load("nonexistent_prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_prompt")
}

func TestPromptStore_Seed(t *testing.T) {
	custom := "mine: {context} {question}"
	store, dir := newPrompts(t, map[string]string{"grounding.txt": custom})

	_, err := store.Load(driven.PromptSystem)
	require.NoError(t, err)

	for _, f := range []string{"system.txt", "grounding.txt", "condense.txt", "README.md"} {
		info, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, f)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), f)
	}

	data, err := os.ReadFile(filepath.Join(dir, "grounding.txt"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data), "existing files are left alone")
}

func TestPromptStore_UnwritableDirFallsBack(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	got, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)
	assert.Equal(t, builtin(t, driven.PromptGrounding), got)

	_, err = store.Load("tone")
	assert.Error(t, err)
}

func TestPromptStore_CacheAndReload(t *testing.T) {
	store, dir := newPrompts(t, nil)
	path := filepath.Join(dir, "grounding.txt")

	first, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)

	edited := "edited: {context} {question}"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o600))

	cached, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)
	assert.Equal(t, edited, fresh)

	require.NoError(t, os.Remove(path))
	store.Reload()
	restored, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)
	assert.Equal(t, first, restored)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, _ := newPrompts(t, nil)

	const n = 64
	results := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptGrounding)
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, results[0], p)
	}
}

func TestPromptStore_Watch(t *testing.T) {
	store, dir := newPrompts(t, nil)
	_, err := store.Load(driven.PromptGrounding)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- store.Watch(ctx) }()

	// Let the watcher register the directory.
	time.Sleep(100 * time.Millisecond)

	edited := "Edited: {context} {question}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grounding.txt"), []byte(edited), 0o600))

	assert.Eventually(t, func() bool {
		p, err := store.Load(driven.PromptGrounding)
		return err == nil && p == edited
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
