package point

import (
	"math"
	"testing"
)

func TestPerformanceUnifySingle(t *testing.T) {
	p := NewPerformance([]float64{4.2})
	if p.Unify() != 4.2 {
		t.Fatalf("Unify() = %g, want 4.2", p.Unify())
	}
}

func TestPerformanceUnifySumsMultiple(t *testing.T) {
	p := NewPerformance([]float64{1, 2, 3})
	if p.Unify() != 6 {
		t.Fatalf("Unify() = %g, want 6 (sum of objectives)", p.Unify())
	}
}

func TestPerformanceResetIsInfinite(t *testing.T) {
	p := Reset(3)
	if !p.IsReset() {
		t.Fatalf("Reset(3) should report IsReset")
	}
	if !math.IsInf(p.Unify(), 1) {
		t.Fatalf("Unify() of a reset performance should be +Inf, got %g", p.Unify())
	}
}

func TestPerformanceLess(t *testing.T) {
	a := NewPerformance([]float64{1})
	b := NewPerformance([]float64{2})
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("Less ordering wrong: a=%v b=%v", a, b)
	}
}
