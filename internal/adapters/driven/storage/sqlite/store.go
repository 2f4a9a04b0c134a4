package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "askdocs.db"

const defaultBusyTimeout = 5 * time.Second

// Store owns the database handle shared by the vector index and the
// conversation memory.
type Store struct {
	db      *sql.DB
	path    string
	busy    time.Duration
	version int
}

// Option configures a Store.
type Option func(*Store)

// WithBusyTimeout sets how long a writer waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.busy = d
		}
	}
}

// NewStore opens (creating if needed) the database in dataDir and brings the
// schema up to date. An empty dataDir means ~/.askdocs/data.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".askdocs", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{path: filepath.Join(dataDir, DatabaseFile), busy: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	s.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	if s.version, err = migrations.Apply(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", s.path, err)
	}
	return s, nil
}

// dsn enables WAL so the HTTP and MCP surfaces can read during a build.
func (s *Store) dsn() string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", s.busy.Milliseconds()))
	q.Add("_pragma", "synchronous(NORMAL)")
	return "file:" + s.path + "?" + q.Encode()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion is the schema version the store was migrated to on open.
func (s *Store) SchemaVersion() int {
	return s.version
}

// VectorIndex returns the chunk index kept in this database.
func (s *Store) VectorIndex() *VectorIndex {
	return &VectorIndex{store: s}
}

// ConversationMemory returns the turn log kept in this database.
func (s *Store) ConversationMemory() driven.ConversationMemory {
	return &conversationMemory{store: s}
}

// indexErr wraps a database failure in domain.ErrVectorIndex. The cause
// stays in the chain so context errors can still be matched.
func indexErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrVectorIndex, op, err)
}
