package strategy

import (
	"testing"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

func quadraticSpace(t *testing.T) *space.Space {
	t.Helper()
	x, err := space.NewRealDimension("x", -10, 10)
	if err != nil {
		t.Fatalf("NewRealDimension: %v", err)
	}
	y, err := space.NewRealDimension("y", -10, 10)
	if err != nil {
		t.Fatalf("NewRealDimension: %v", err)
	}
	sp, err := space.NewSpace(x, y)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return sp
}

func quadraticPerf(p point.Point) point.Performance {
	dx := p.Terms[0].Numeric() - 3
	dy := p.Terms[1].Numeric() + 4
	return point.NewPerformance([]float64{dx*dx + dy*dy})
}

func TestPROConvergesOnQuadraticBowl(t *testing.T) {
	cfg := config.New()
	cfg.Set("CONVERGE_SZ", "0.01")
	p := NewPRO(cfg, utils.NewRandSource(7))
	sp := quadraticSpace(t)
	if err := p.Init(sp); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for i := 0; i < 5000 && !p.Converged(); i++ {
		var flow Flow
		pt, err := p.Generate(&flow)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if flow.Status == Wait {
			continue
		}
		if err := p.Analyze(&Trial{Point: pt, Perf: quadraticPerf(pt)}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if !p.Converged() {
		t.Fatalf("PRO did not converge within the iteration budget")
	}
	best := p.Best()
	if best.IsNone() {
		t.Fatalf("expected a best point after convergence")
	}
	bp := quadraticPerf(best)
	if bp.Unify() > 1.0 {
		t.Fatalf("best point performance = %g, want close to the minimum at (3,-4)", bp.Unify())
	}
}

func TestPROCoefficientValidation(t *testing.T) {
	cases := []struct {
		name                                   string
		reflect, expand, contract, shrink float64
		wantErr                                bool
	}{
		{"defaults", 1.0, 2.0, 0.5, 0.5, false},
		{"reflect non-positive", 0, 2.0, 0.5, 0.5, true},
		{"expand not greater than reflect", 1.0, 1.0, 0.5, 0.5, true},
		{"contract out of range", 1.0, 2.0, 1.5, 0.5, true},
		{"shrink out of range", 1.0, 2.0, 0.5, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCoefficients(tc.reflect, tc.expand, tc.contract, tc.shrink)
			if (err != nil) != tc.wantErr {
				t.Fatalf("validateCoefficients(%v,%v,%v,%v) error = %v, wantErr %v",
					tc.reflect, tc.expand, tc.contract, tc.shrink, err, tc.wantErr)
			}
		})
	}
}

func TestPRORejectedPreservesID(t *testing.T) {
	p := NewPRO(config.New(), utils.NewRandSource(1))
	if err := p.Init(quadraticSpace(t)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var flow Flow
	_, _ = p.Generate(&flow)

	flow = Flow{}
	replacement, err := p.Rejected(&flow, 123)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != 123 {
		t.Fatalf("Rejected replacement id = %d, want 123", replacement.ID)
	}
}
