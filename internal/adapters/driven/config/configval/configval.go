// Package configval reads loosely typed configuration values. TOML decodes
// integers as int64, JSON as float64, and callers store plain ints; the
// getters accept all of them.
package configval

import "math"

// Lookup returns the raw value stored under key.
type Lookup func(key string) (any, bool)

// GetString returns the string under key, or "".
func (l Lookup) GetString(key string) string {
	v, _ := l(key)
	s, _ := v.(string)
	return s
}

// GetInt returns the integer under key, or 0. Floats count only when they
// hold a whole number.
func (l Lookup) GetInt(key string) int {
	v, _ := l(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// GetFloat returns the number under key widened to float64, or 0.
func (l Lookup) GetFloat(key string) float64 {
	v, _ := l(key)
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// GetBool returns the bool under key, or false.
func (l Lookup) GetBool(key string) bool {
	v, _ := l(key)
	b, _ := v.(bool)
	return b
}
