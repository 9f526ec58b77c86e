// Package point implements the tuning point and performance record: the
// value tuple a strategy proposes, and the objective vector a client reports
// back for it.
package point

import (
	"fmt"

	"github.com/activeharmony/harmony-core/internal/space"
)

// Point is a tagged value tuple conforming to a space, plus an identifier.
// ID 0 is reserved to mean "no point"; strategies assign monotonically
// increasing ids starting at 1.
type Point struct {
	ID    uint64
	Terms []space.Value
}

// None is the zero-valued "no point" sentinel returned by BEST before any
// report has been analyzed.
func None() Point { return Point{} }

// IsNone reports whether p is the "no point" sentinel.
func (p Point) IsNone() bool { return p.ID == 0 }

// Clone returns a deep copy; Terms share no backing array with p.
func (p Point) Clone() Point {
	terms := make([]space.Value, len(p.Terms))
	copy(terms, p.Terms)
	return Point{ID: p.ID, Terms: terms}
}

// Equal compares two points by id and term-wise value equality.
func (p Point) Equal(o Point) bool {
	if p.ID != o.ID || len(p.Terms) != len(o.Terms) {
		return false
	}
	for i := range p.Terms {
		if !p.Terms[i].Equal(o.Terms[i]) {
			return false
		}
	}
	return true
}

// Parse reads the "( v1, v2, ... )" wire format into a Point with the given
// id, typed according to sp.
func Parse(sp *space.Space, id uint64, text string) (Point, error) {
	terms, err := space.ParsePoint(sp, text)
	if err != nil {
		return Point{}, fmt.Errorf("point: %w", err)
	}
	return Point{ID: id, Terms: terms}, nil
}

// Format renders the point in the "( v1, v2, ... )" wire format, without
// the id (the id travels alongside the point on the wire, not inside it).
func (p Point) Format() string {
	return space.FormatPoint(p.Terms)
}

// Align snaps every term of p to sp's nearest legal value, returning a new
// Point with the same id.
func Align(sp *space.Space, p Point) (Point, error) {
	terms, err := sp.Align(p.Terms)
	if err != nil {
		return Point{}, fmt.Errorf("point: aligning point #%d: %w", p.ID, err)
	}
	return Point{ID: p.ID, Terms: terms}, nil
}
