package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/configval"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a map. It backs tests and ASKDOCS_EPHEMERAL
// runs, where nothing should touch the config file.
type ConfigStore struct {
	configval.Lookup

	mu   sync.RWMutex
	data map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	s := &ConfigStore{data: make(map[string]any)}
	s.Lookup = s.Get
	return s
}

// Get returns the value under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	return s.SetAll(map[string]any{key: value})
}

// SetAll stores every entry of values.
func (s *ConfigStore) SetAll(values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	maps.Copy(s.data, values)
	return nil
}

// Save does nothing; the map is the only copy.
func (s *ConfigStore) Save() error { return nil }

// Load does nothing; the map is the only copy.
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
