// Package vertex provides the geometric view the simplex strategies (PRO,
// ANGEL) operate over: a continuous coordinate vector plus a performance
// record, and the centroid/distance/transform/collapse/bounds utilities a
// Nelder-Mead step needs.
package vertex

import (
	"math"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
)

// Vertex is a point in continuous space (one coordinate per dimension, not
// yet aligned to its dimension's grid) augmented with a performance record.
type Vertex struct {
	X    []float64
	Perf point.Performance
}

// New allocates a vertex of dimension n with a reset performance of
// nObjectives objectives.
func New(n, nObjectives int) Vertex {
	return Vertex{X: make([]float64, n), Perf: point.Reset(nObjectives)}
}

// Clone returns a deep copy.
func (v Vertex) Clone() Vertex {
	x := make([]float64, len(v.X))
	copy(x, v.X)
	return Vertex{X: x, Perf: v.Perf.Clone()}
}

// FromPoint extracts a continuous coordinate vector from an aligned Point:
// integer and real terms contribute their numeric value directly, enum terms
// contribute their index within the dimension's ordered list.
func FromPoint(sp *space.Space, p point.Point) (Vertex, error) {
	x := make([]float64, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dim(i)
		if d.Kind == space.DimEnum {
			idx, err := d.Index(p.Terms[i])
			if err != nil {
				return Vertex{}, err
			}
			x[i] = float64(idx)
		} else {
			x[i] = p.Terms[i].Numeric()
		}
	}
	return Vertex{X: x, Perf: point.Reset(1)}, nil
}

// ToPoint aligns v's continuous coordinates onto sp's grid and assigns id,
// producing a dispatchable Point.
func (v Vertex) ToPoint(sp *space.Space, id uint64) (point.Point, error) {
	terms := make([]space.Value, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		val, err := sp.Dim(i).AlignNumeric(v.X[i])
		if err != nil {
			return point.Point{}, err
		}
		terms[i] = val
	}
	return point.Point{ID: id, Terms: terms}, nil
}

// Dist returns the Euclidean distance between v and o in coordinate space.
func (v Vertex) Dist(o Vertex) float64 {
	sum := 0.0
	for i := range v.X {
		d := v.X[i] - o.X[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Transform returns pivot + coeff*(v - pivot), the general simplex move used
// by reflect/expand/contract/shrink, all of which differ only in pivot and
// coeff.
func (v Vertex) Transform(pivot Vertex, coeff float64) Vertex {
	x := make([]float64, len(v.X))
	for i := range v.X {
		x[i] = pivot.X[i] + coeff*(v.X[i]-pivot.X[i])
	}
	return Vertex{X: x, Perf: point.Reset(len(v.Perf.Obj))}
}

// Simplex is N+1 vertices in an N-dimensional space.
type Simplex []Vertex

// Clone returns a deep copy of the whole simplex.
func (s Simplex) Clone() Simplex {
	out := make(Simplex, len(s))
	for i, v := range s {
		out[i] = v.Clone()
	}
	return out
}

// BestIndex returns the index of the vertex with the lowest unified
// performance.
func (s Simplex) BestIndex() int {
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].Perf.Less(s[best].Perf) {
			best = i
		}
	}
	return best
}

// Centroid returns the mean coordinate of every vertex except the one at
// index exclude (pass -1 to include all vertices).
func (s Simplex) Centroid(exclude int) Vertex {
	n := len(s[0].X)
	x := make([]float64, n)
	count := 0
	for i, v := range s {
		if i == exclude {
			continue
		}
		for j := 0; j < n; j++ {
			x[j] += v.X[j]
		}
		count++
	}
	if count == 0 {
		count = 1
	}
	for j := range x {
		x[j] /= float64(count)
	}
	return Vertex{X: x, Perf: point.Reset(len(s[0].Perf.Obj))}
}

// Collapsed reports whether every vertex of the simplex aligns to the same
// legal point in sp, i.e. the simplex can no longer make progress.
func (s Simplex) Collapsed(sp *space.Space) bool {
	if len(s) == 0 {
		return true
	}
	first, err := s[0].ToPoint(sp, 0)
	if err != nil {
		return false
	}
	for i := 1; i < len(s); i++ {
		p, err := s[i].ToPoint(sp, 0)
		if err != nil {
			return false
		}
		if !p.Equal(first) {
			return false
		}
	}
	return true
}

// InBounds reports whether every vertex in the simplex has every coordinate
// within its dimension's range (before alignment): integer/real dimensions
// bound the raw coordinate, enum dimensions bound the index.
func (s Simplex) InBounds(sp *space.Space) bool {
	for _, v := range s {
		if !VertexInBounds(sp, v) {
			return false
		}
	}
	return true
}

// VertexInBounds reports whether a single vertex's raw coordinates fall
// within sp's bounding box.
func VertexInBounds(sp *space.Space, v Vertex) bool {
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dim(i)
		x := v.X[i]
		var lo, hi float64
		switch d.Kind {
		case space.DimInteger:
			lo, hi = float64(d.IMin), float64(d.IMax)
		case space.DimReal:
			lo, hi = d.RMin, d.RMax
		case space.DimEnum:
			lo, hi = 0, float64(len(d.Values)-1)
		}
		if x < lo || x > hi {
			return false
		}
	}
	return true
}

// MeanSquaredDeviation computes mean((unify(perf_i) - unify(centroidPerf))^2)
// over the simplex, the fval half of PRO's convergence test. centroidPerf is
// typically the performance of the simplex's centroid vertex, but PRO's
// convergence check passes the best vertex's performance as a stand-in since
// the centroid itself is never evaluated by a client.
func (s Simplex) MeanSquaredDeviation(ref float64) float64 {
	sum := 0.0
	for _, v := range s {
		d := v.Perf.Unify() - ref
		sum += d * d
	}
	return sum / float64(len(s))
}

// MaxDistTo returns the maximum distance from any vertex in the simplex to
// ref.
func (s Simplex) MaxDistTo(ref Vertex) float64 {
	max := 0.0
	for _, v := range s {
		if d := v.Dist(ref); d > max {
			max = d
		}
	}
	return max
}
