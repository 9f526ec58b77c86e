package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Get returns the value for key: the explicit value if set, else the
// registered default, else the empty string.
func (s *Store) Get(key string) string {
	if v, ok := s.values[key]; ok {
		return v
	}
	if info, ok := s.registry[key]; ok {
		return info.Default
	}
	return ""
}

// GetOK returns the value for key and whether it was found, either as an
// explicit value or a registered default.
func (s *Store) GetOK(key string) (string, bool) {
	if v, ok := s.values[key]; ok {
		return v, true
	}
	if info, ok := s.registry[key]; ok {
		return info.Default, true
	}
	return "", false
}

// Set assigns key=value, publishing the write immediately. Repeated Set
// calls on the same key do not change its position in insertion order.
func (s *Store) Set(key, value string) {
	if _, exists := s.values[key]; !exists {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

// Bool parses the value for key using the vocabulary of the original
// config format: "1", "true", "yes", "on" (case-insensitive) are true;
// "0", "false", "no", "off" are false. An unset key with no registered
// default, or a value outside that vocabulary, is an error.
func (s *Store) Bool(key string) (bool, error) {
	v, ok := s.GetOK(key)
	if !ok {
		return false, fmt.Errorf("config: key %q is not set and has no default", key)
	}
	return ParseBool(v)
}

// ParseBool implements the config store's boolean vocabulary standalone, for
// callers validating a value before it is stored.
func ParseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("config: %q is not a recognized boolean", v)
	}
}

// Int parses the value for key as a base-10 integer.
func (s *Store) Int(key string) (int64, error) {
	v, ok := s.GetOK(key)
	if !ok {
		return 0, fmt.Errorf("config: key %q is not set and has no default", key)
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: key %q: %w", key, err)
	}
	return i, nil
}

// IntOr is a convenience wrapper that falls back to def on any error
// (unset key, unparseable value) -- used by strategies reading keys with a
// coded-in numeric default rather than a registered string default.
func (s *Store) IntOr(key string, def int64) int64 {
	i, err := s.Int(key)
	if err != nil {
		return def
	}
	return i
}

// Real parses the value for key as a float64.
func (s *Store) Real(key string) (float64, error) {
	v, ok := s.GetOK(key)
	if !ok {
		return 0, fmt.Errorf("config: key %q is not set and has no default", key)
	}
	r, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("config: key %q: %w", key, err)
	}
	return r, nil
}

// RealOr falls back to def on any parse error.
func (s *Store) RealOr(key string, def float64) float64 {
	r, err := s.Real(key)
	if err != nil {
		return def
	}
	return r
}

// splitArray splits a value on commas if it contains one, else on runs of
// whitespace, matching the original's comma-or-whitespace array format.
func splitArray(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	var parts []string
	if strings.Contains(v, ",") {
		parts = strings.Split(v, ",")
	} else {
		parts = strings.Fields(v)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ArrayLen returns the number of comma- or whitespace-separated items in
// key's value.
func (s *Store) ArrayLen(key string) int {
	return len(splitArray(s.Get(key)))
}

// ArrayItem returns the i-th comma- or whitespace-separated item of key's
// value.
func (s *Store) ArrayItem(key string, i int) (string, error) {
	items := splitArray(s.Get(key))
	if i < 0 || i >= len(items) {
		return "", fmt.Errorf("config: key %q: index %d out of range [0,%d)", key, i, len(items))
	}
	return items[i], nil
}

// Serialize renders the store in the KEY=VALUE file format, one entry per
// line in insertion order.
func (s *Store) Serialize() string {
	var b strings.Builder
	for _, k := range s.order {
		fmt.Fprintf(&b, "%s=%s\n", k, s.values[k])
	}
	return b.String()
}
