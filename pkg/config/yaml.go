package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/activeharmony/harmony-core/internal/space"
)

// SpaceSpec is the YAML-declared shape of a parameter space: an ordered list
// of dimensions. This is additive to the core KEY=VALUE config format -- a
// convenience for declaring a space once instead of constructing Dimension
// values in Go.
type SpaceSpec struct {
	Dimensions []DimensionSpec `yaml:"dimensions"`
}

// DimensionSpec is the YAML shape of one dimension entry.
type DimensionSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "integer", "real", or "enum"

	Min  *float64 `yaml:"min,omitempty"`
	Max  *float64 `yaml:"max,omitempty"`
	Step *float64 `yaml:"step,omitempty"`

	Values []string `yaml:"values,omitempty"`
}

// Build validates a SpaceSpec and constructs the Space it describes.
func (spec *SpaceSpec) Build() (*space.Space, error) {
	if len(spec.Dimensions) == 0 {
		return nil, fmt.Errorf("config: space spec declares no dimensions")
	}
	dims := make([]*space.Dimension, 0, len(spec.Dimensions))
	for i, ds := range spec.Dimensions {
		d, err := ds.build()
		if err != nil {
			return nil, fmt.Errorf("config: dimension %d: %w", i, err)
		}
		dims = append(dims, d)
	}
	return space.NewSpace(dims...)
}

func (ds DimensionSpec) build() (*space.Dimension, error) {
	switch ds.Kind {
	case "integer":
		if ds.Min == nil || ds.Max == nil {
			return nil, fmt.Errorf("dimension %q: integer dimensions require min and max", ds.Name)
		}
		step := int64(1)
		if ds.Step != nil {
			step = int64(*ds.Step)
		}
		return space.NewIntegerDimension(ds.Name, int64(*ds.Min), int64(*ds.Max), step)
	case "real":
		if ds.Min == nil || ds.Max == nil {
			return nil, fmt.Errorf("dimension %q: real dimensions require min and max", ds.Name)
		}
		return space.NewRealDimension(ds.Name, *ds.Min, *ds.Max)
	case "enum":
		return space.NewEnumDimension(ds.Name, ds.Values)
	default:
		return nil, fmt.Errorf("dimension %q: unknown kind %q (want integer, real, or enum)", ds.Name, ds.Kind)
	}
}

// SessionSpec is the YAML-declared shape of a session's strategy choice,
// per-strategy settings, and pipeline stage order -- everything besides the
// space itself that a deployment typically wants to pin in one file.
type SessionSpec struct {
	Strategy string            `yaml:"strategy"`
	Settings map[string]string `yaml:"settings"`
	Pipeline []string          `yaml:"pipeline"`
}

// ToStore flattens a SessionSpec's settings into a Store, along with the
// strategy choice under the STRATEGY key and the stage list under LAYERS,
// matching the core config keys named in the wire-format spec.
func (spec *SessionSpec) ToStore() *Store {
	s := New()
	if spec.Strategy != "" {
		s.Set("STRATEGY", spec.Strategy)
	}
	if len(spec.Pipeline) > 0 {
		joined := ""
		for i, name := range spec.Pipeline {
			if i > 0 {
				joined += ","
			}
			joined += name
		}
		s.Set("LAYERS", joined)
	}
	for k, v := range spec.Settings {
		s.Set(k, v)
	}
	return s
}

// ParseSpaceYAML parses a SpaceSpec from YAML bytes and builds the Space it
// describes.
func ParseSpaceYAML(data []byte) (*space.Space, error) {
	var spec SpaceSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("config: failed to parse space yaml: %w", err)
	}
	return spec.Build()
}

// LoadSpaceYAML reads path and parses it as a SpaceSpec.
func LoadSpaceYAML(path string) (*space.Space, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	sp, err := ParseSpaceYAML(data)
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return sp, nil
}

// ParseSessionYAML parses a SessionSpec from YAML bytes.
func ParseSessionYAML(data []byte) (*SessionSpec, error) {
	var spec SessionSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("config: failed to parse session yaml: %w", err)
	}
	return &spec, nil
}

// LoadSessionYAML reads path and parses it as a SessionSpec.
func LoadSessionYAML(path string) (*SessionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	spec, err := ParseSessionYAML(data)
	if err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return spec, nil
}
