package config

import (
	"time"
)

// Values wraps a decoded YAML or JSON document for lenient typed access.
// Accessors return the default when a key is missing or holds the wrong type.
type Values struct {
	data map[string]any
}

// NewValues wraps data. A nil map behaves as empty.
func NewValues(data map[string]any) Values {
	if data == nil {
		data = make(map[string]any)
	}
	return Values{data: data}
}

// String returns the string at key, or def.
func (v Values) String(key, def string) string {
	if s, ok := v.data[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool at key, or def.
func (v Values) Bool(key string, def bool) bool {
	if b, ok := v.data[key].(bool); ok {
		return b
	}
	return def
}

// Duration returns the duration at key, or def.
//
// Strings are parsed with time.ParseDuration; bare numbers are seconds.
func (v Values) Duration(key string, def time.Duration) time.Duration {
	switch val := v.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	}
	return def
}

// Section returns the nested mapping at key, or an empty Values.
func (v Values) Section(key string) Values {
	switch m := v.data[key].(type) {
	case map[string]any:
		return NewValues(m)
	default:
		return NewValues(nil)
	}
}

// Has reports whether key is present.
func (v Values) Has(key string) bool {
	_, ok := v.data[key]
	return ok
}
