// Package filesystem loads documents from local files and directories.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// ErrFileTooLarge is reported for files over the loader's size limit.
var ErrFileTooLarge = errors.New("file too large")

// DefaultExtensions are the file types picked up when walking a directory.
var DefaultExtensions = []string{".pdf", ".txt", ".md", ".markdown", ".html", ".htm", ".docx"}

// Loader reads documents from paths given on the command line.
// A file is always read; a directory is walked recursively, keeping files
// with a known extension and skipping hidden files and directories.
type Loader struct {
	extensions map[string]bool
	maxSize    int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithExtensions replaces the extensions picked up from directories.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) {
		l.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			l.extensions[strings.ToLower(ext)] = true
		}
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero means no limit.
func WithMaxFileSize(n int64) Option {
	return func(l *Loader) {
		l.maxSize = n
	}
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	WithExtensions(DefaultExtensions...)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads every document under paths. Files that cannot be read are
// returned as failures rather than stopping the load. The error is non-nil
// only when ctx is cancelled.
func (l *Loader) Load(ctx context.Context, paths []string) ([]domain.RawDocument, []domain.DocumentFailure, error) {
	var (
		docs     []domain.RawDocument
		failures []domain.DocumentFailure
	)

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		path := ResolvePath(p)
		info, err := os.Stat(path)
		if err != nil {
			failures = append(failures, domain.DocumentFailure{SourceID: p, Err: err})
			continue
		}

		if !info.IsDir() {
			doc, err := l.readFile(path, filepath.Base(path), info)
			if err != nil {
				failures = append(failures, domain.DocumentFailure{SourceID: p, Err: err})
				continue
			}
			docs = append(docs, *doc)
			continue
		}

		found, skipped, err := l.walk(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, found...)
		failures = append(failures, skipped...)
	}

	return docs, failures, nil
}

// walk collects supported files under root. WalkDir visits them in lexical order.
func (l *Loader) walk(ctx context.Context, root string) ([]domain.RawDocument, []domain.DocumentFailure, error) {
	var (
		docs     []domain.RawDocument
		failures []domain.DocumentFailure
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if err != nil {
			failures = append(failures, domain.DocumentFailure{SourceID: rel, Err: err})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !l.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			failures = append(failures, domain.DocumentFailure{SourceID: rel, Err: err})
			return nil
		}
		doc, err := l.readFile(path, filepath.ToSlash(rel), info)
		if err != nil {
			failures = append(failures, domain.DocumentFailure{SourceID: rel, Err: err})
			return nil
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil, nil, err
	}

	return docs, failures, nil
}

func (l *Loader) readFile(path, sourceID string, info fs.FileInfo) (*domain.RawDocument, error) {
	if l.maxSize > 0 && info.Size() > l.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, info.Size(), l.maxSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	uri, err := filepath.Abs(path)
	if err != nil {
		uri = path
	}

	return &domain.RawDocument{
		SourceID: sourceID,
		URI:      uri,
		Content:  content,
	}, nil
}

// ResolvePath converts a file:// URI to a local path. Bare paths pass through unchanged.
func ResolvePath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// isHidden reports whether a file or directory name is hidden. "." and ".." are not.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
