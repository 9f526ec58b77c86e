// Package config implements the tuning session's configuration store: a
// flat string-to-string map with typed accessors, deferred per-stage option
// registration, and a deterministic file format, plus an optional YAML
// front-end for declaring a parameter space and session defaults up front.
package config

import "fmt"

// Info describes one configuration key a stage or strategy wants to
// register: its default value (used when the key is otherwise unset) and a
// short help string for documentation/introspection purposes.
type Info struct {
	Key     string
	Default string
	Help    string
}

// Store is a flat string->string configuration map. Insertion order is
// preserved so Serialize is deterministic, matching the original's
// file-order-preserving behavior.
type Store struct {
	values   map[string]string
	order    []string
	registry map[string]Info
}

// New returns an empty store.
func New() *Store {
	return &Store{
		values:   make(map[string]string),
		registry: make(map[string]Info),
	}
}

// Register records a set of (key, default, help) descriptors. It is safe to
// call repeatedly (e.g. once per pipeline stage at session construction);
// registering the same key twice with different defaults is an error, since
// it most likely indicates two stages disagreeing about a key they share.
func (s *Store) Register(infos ...Info) error {
	for _, info := range infos {
		if info.Key == "" {
			return fmt.Errorf("config: cannot register an empty key")
		}
		if existing, ok := s.registry[info.Key]; ok && existing.Default != info.Default {
			return fmt.Errorf("config: key %q already registered with default %q, got conflicting default %q",
				info.Key, existing.Default, info.Default)
		}
		s.registry[info.Key] = info
	}
	return nil
}

// Keys returns every key that has an explicit value, in insertion order.
// Registered-but-unset keys are not included, matching the original's
// serialization behavior of only ever persisting what was actually set.
func (s *Store) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
