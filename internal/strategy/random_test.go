package strategy

import (
	"testing"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

func realSpace(t *testing.T) *space.Space {
	t.Helper()
	a, err := space.NewRealDimension("a", 0, 10)
	if err != nil {
		t.Fatalf("NewRealDimension: %v", err)
	}
	sp, err := space.NewSpace(a)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return sp
}

func TestRandomNeverConverges(t *testing.T) {
	r := NewRandom(config.New(), utils.NewRandSource(1))
	if err := r.Init(realSpace(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	for i := 0; i < 20; i++ {
		var flow Flow
		pt, err := r.Generate(&flow)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if flow.Status != Accept {
			t.Fatalf("Generate flow status = %v, want Accept", flow.Status)
		}
		if err := r.Analyze(&Trial{Point: pt, Perf: point.NewPerformance([]float64{float64(i)})}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if r.Converged() {
		t.Fatalf("Random should never converge")
	}
}

func TestRandomTracksBest(t *testing.T) {
	r := NewRandom(config.New(), utils.NewRandSource(2))
	if err := r.Init(realSpace(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var flow Flow
	first, _ := r.Generate(&flow)
	if err := r.Analyze(&Trial{Point: first, Perf: point.NewPerformance([]float64{5})}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, _ := r.Generate(&flow)
	if err := r.Analyze(&Trial{Point: second, Perf: point.NewPerformance([]float64{1})}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !r.Best().Equal(second) {
		t.Fatalf("Best() = %+v, want %+v (lower performance)", r.Best(), second)
	}
}

func TestRandomRejectedKeepsID(t *testing.T) {
	r := NewRandom(config.New(), utils.NewRandSource(3))
	if err := r.Init(realSpace(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	flow := Flow{Hint: point.Point{ID: 99, Terms: []space.Value{space.RealValue(3.5)}}}
	replacement, err := r.Rejected(&flow, 7)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != 7 {
		t.Fatalf("Rejected replacement id = %d, want 7", replacement.ID)
	}
	if !replacement.Terms[0].Equal(space.RealValue(3.5)) {
		t.Fatalf("Rejected should use the hint's terms, got %v", replacement.Terms)
	}
}
