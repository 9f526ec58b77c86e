package space

import (
	"fmt"
	"math"
	"strings"

	"github.com/activeharmony/harmony-core/pkg/utils"
)

// Space is an ordered, immutable-after-construction sequence of named
// dimensions. Indices into Dims are stable for the life of the space.
type Space struct {
	Dims  []*Dimension
	byName map[string]int
}

// NewSpace validates and builds a space from an ordered list of dimensions.
// Dimension names must be unique.
func NewSpace(dims ...*Dimension) (*Space, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("space: a space must declare at least one dimension")
	}
	byName := make(map[string]int, len(dims))
	for i, d := range dims {
		if d == nil {
			return nil, fmt.Errorf("space: dimension %d is nil", i)
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("space: duplicate dimension name %q", d.Name)
		}
		byName[d.Name] = i
	}
	return &Space{Dims: dims, byName: byName}, nil
}

// Len returns the number of dimensions.
func (s *Space) Len() int { return len(s.Dims) }

// Dim returns the dimension at index i.
func (s *Space) Dim(i int) *Dimension { return s.Dims[i] }

// DimByName looks up a dimension by name.
func (s *Space) DimByName(name string) (*Dimension, int, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, 0, false
	}
	return s.Dims[i], i, true
}

// Finite reports whether every dimension in the space is finite, i.e.
// whether the space as a whole can be exhaustively enumerated.
func (s *Space) Finite() bool {
	for _, d := range s.Dims {
		if !d.Finite() {
			return false
		}
	}
	return true
}

// Random draws a uniformly random legal term for every dimension.
func (s *Space) Random(rng *utils.RandSource) []Value {
	out := make([]Value, len(s.Dims))
	for i, d := range s.Dims {
		out[i] = d.Random(rng)
	}
	return out
}

// Align snaps every term of terms to its dimension's nearest legal value.
// terms must have exactly s.Len() entries.
func (s *Space) Align(terms []Value) ([]Value, error) {
	if len(terms) != len(s.Dims) {
		return nil, fmt.Errorf("space: term count %d does not match space length %d", len(terms), len(s.Dims))
	}
	out := make([]Value, len(terms))
	for i, d := range s.Dims {
		av, err := d.Align(terms[i])
		if err != nil {
			return nil, fmt.Errorf("space: aligning term %d (%s): %w", i, d.Name, err)
		}
		out[i] = av
	}
	return out, nil
}

// Diameter returns the Euclidean diagonal length of the space's bounding
// box, treating each dimension's Span() as its extent. PRO's default
// CONVERGE_SZ and ANGEL's DIST_TOL scale are both derived from this.
func (s *Space) Diameter() float64 {
	sum := 0.0
	for _, d := range s.Dims {
		sp := d.Span()
		sum += sp * sp
	}
	return math.Sqrt(sum)
}

// ParsePoint reads the "( v1, v2, ... )" wire format into a slice of terms,
// typed according to each dimension in order.
func ParsePoint(s *Space, text string) ([]Value, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "(") || !strings.HasSuffix(text, ")") {
		return nil, fmt.Errorf("space: malformed point %q: expected parenthesized term list", text)
	}
	inner := text[1 : len(text)-1]
	parts := splitTerms(inner)
	if len(parts) != s.Len() {
		return nil, fmt.Errorf("space: point %q has %d terms, space has %d dimensions", text, len(parts), s.Len())
	}
	terms := make([]Value, s.Len())
	for i, d := range s.Dims {
		raw := strings.TrimSpace(parts[i])
		v, err := parseTerm(d, raw)
		if err != nil {
			return nil, fmt.Errorf("space: term %d (%s): %w", i, d.Name, err)
		}
		terms[i] = v
	}
	return terms, nil
}

// FormatPoint renders terms in the "( v1, v2, ... )" wire format.
func FormatPoint(terms []Value) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func splitTerms(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func parseTerm(d *Dimension, raw string) (Value, error) {
	switch d.Kind {
	case DimInteger:
		var i int64
		if _, err := fmt.Sscanf(raw, "%d", &i); err != nil {
			return Value{}, fmt.Errorf("expected integer, got %q: %w", raw, err)
		}
		return IntValue(i), nil
	case DimReal:
		var r float64
		if _, err := fmt.Sscanf(raw, "%g", &r); err != nil {
			return Value{}, fmt.Errorf("expected real, got %q: %w", raw, err)
		}
		return RealValue(r), nil
	case DimEnum:
		return EnumValue(raw), nil
	default:
		return Value{}, fmt.Errorf("unknown dimension kind")
	}
}
