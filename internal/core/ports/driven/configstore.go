package driven

// ConfigStore holds settings under dot-separated keys such as
// "sampling.temperature". Typed getters return the zero value when a key
// is missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	// GetFloat also accepts integers.
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores one value and persists it.
	Set(key string, value any) error
	// SetAll stores values in one write. Either all are persisted or none.
	SetAll(values map[string]any) error

	// Save persists the current values.
	Save() error
	// Load replaces the current values with the persisted ones.
	Load() error

	// Path locates the backing file, for display.
	Path() string
}
