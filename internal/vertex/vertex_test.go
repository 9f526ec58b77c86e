package vertex

import (
	"testing"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
)

func testSpace(t *testing.T) *space.Space {
	t.Helper()
	a, _ := space.NewIntegerDimension("a", 0, 10, 1)
	b, _ := space.NewRealDimension("b", -5, 5)
	sp, err := space.NewSpace(a, b)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return sp
}

func TestVertexPointRoundTrip(t *testing.T) {
	sp := testSpace(t)
	p := point.Point{ID: 1, Terms: []space.Value{space.IntValue(3), space.RealValue(-1.5)}}
	v, err := FromPoint(sp, p)
	if err != nil {
		t.Fatalf("FromPoint: %v", err)
	}
	back, err := v.ToPoint(sp, p.ID)
	if err != nil {
		t.Fatalf("ToPoint: %v", err)
	}
	if !p.Equal(back) {
		t.Fatalf("round trip mismatch: %+v != %+v", p, back)
	}
}

func TestTransformReflection(t *testing.T) {
	pivot := Vertex{X: []float64{0, 0}}
	v := Vertex{X: []float64{2, 4}, Perf: point.Reset(1)}
	reflected := v.Transform(pivot, -1)
	if reflected.X[0] != -2 || reflected.X[1] != -4 {
		t.Fatalf("Transform reflection = %v, want [-2 -4]", reflected.X)
	}
}

func TestCentroidExcludesIndex(t *testing.T) {
	s := Simplex{
		{X: []float64{0, 0}, Perf: point.Reset(1)},
		{X: []float64{2, 0}, Perf: point.Reset(1)},
		{X: []float64{0, 2}, Perf: point.Reset(1)},
	}
	c := s.Centroid(2)
	if c.X[0] != 1 || c.X[1] != 0 {
		t.Fatalf("Centroid(exclude=2) = %v, want [1 0]", c.X)
	}
}

func TestBestIndex(t *testing.T) {
	s := Simplex{
		{X: []float64{0}, Perf: point.NewPerformance([]float64{5})},
		{X: []float64{1}, Perf: point.NewPerformance([]float64{1})},
		{X: []float64{2}, Perf: point.NewPerformance([]float64{3})},
	}
	if got := s.BestIndex(); got != 1 {
		t.Fatalf("BestIndex() = %d, want 1", got)
	}
}

func TestCollapsedDetectsSinglePointSimplex(t *testing.T) {
	sp := testSpace(t)
	s := Simplex{
		{X: []float64{3, 1}, Perf: point.Reset(1)},
		{X: []float64{3.01, 1}, Perf: point.Reset(1)},
	}
	if !s.Collapsed(sp) {
		t.Fatalf("expected simplex to collapse once both vertices align to the same point (3, 1)")
	}
}

func TestVertexInBounds(t *testing.T) {
	sp := testSpace(t)
	in := Vertex{X: []float64{5, 0}}
	out := Vertex{X: []float64{100, 0}}
	if !VertexInBounds(sp, in) {
		t.Fatalf("expected in-bounds vertex to be reported in bounds")
	}
	if VertexInBounds(sp, out) {
		t.Fatalf("expected out-of-bounds vertex to be reported out of bounds")
	}
}
