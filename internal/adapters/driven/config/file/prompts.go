package file

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var (
	_ driven.PromptStore   = (*PromptStore)(nil)
	_ driven.PromptWatcher = (*PromptStore)(nil)
)

//go:embed defaults
var defaultFiles embed.FS

const promptExt = ".txt"

// required lists placeholders a user template must keep to be used.
var required = map[string][]string{
	driven.PromptGrounding: {"{context}", "{question}"},
	driven.PromptCondense:   {"{history}", "{question}"},
}

var promptLog = logger.Named("prompts")

// PromptStore serves prompt templates from a directory of .txt files that
// users may edit. Missing, blank or unusable files fall back to the built-in
// templates. Nothing is written until the first Load or Watch.
type PromptStore struct {
	dir     string
	prepare func() error

	mu    sync.RWMutex
	cache map[string]string
}

// DefaultPrompt returns the built-in template for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFiles.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// NewPromptStore returns a store rooted at dir, or ~/.askdocs/prompts when
// dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".askdocs", "prompts")
	}

	s := &PromptStore{dir: dir, cache: make(map[string]string)}
	s.prepare = sync.OnceValue(s.seed)
	return s, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, builtin := DefaultPrompt(name)

	if err := s.prepare(); err != nil {
		if builtin {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	switch {
	case err == nil:
	case builtin:
		if !errors.Is(err, fs.ErrNotExist) {
			promptLog.Warn("%s%s: %v; using built-in", name, promptExt, err)
		}
		prompt = fallback
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops every cached template.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	clear(s.cache)
	s.mu.Unlock()
}

// Watch drops the cache when a template in the directory changes, until
// ctx is cancelled. Bursts of events from one save are coalesced.
func (s *PromptStore) Watch(ctx context.Context) error {
	if err := s.prepare(); err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	const settle = 50 * time.Millisecond
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != promptExt || ev.Op == fsnotify.Chmod {
				continue
			}
			promptLog.Debug("%s %s", filepath.Base(ev.Name), ev.Op)
			timer.Reset(settle)
		case <-timer.C:
			s.Reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			promptLog.Warn("watch: %v", err)
		}
	}
}

// read loads name from disk and checks it is usable.
func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+promptExt))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("file is blank")
	}
	for _, p := range required[name] {
		if !strings.Contains(prompt, p) {
			return "", fmt.Errorf("missing placeholder %s", p)
		}
	}
	return prompt, nil
}

// seed creates the directory and copies in any built-in file the user does
// not already have.
func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}

	entries, err := defaultFiles.ReadDir("defaults")
	if err != nil {
		return err
	}
	for _, e := range entries {
		data, err := defaultFiles.ReadFile("defaults/" + e.Name())
		if err != nil {
			return err
		}
		if err := writeIfMissing(filepath.Join(s.dir, e.Name()), data); err != nil {
			return fmt.Errorf("seed %s: %w", e.Name(), err)
		}
	}
	return nil
}

func writeIfMissing(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
