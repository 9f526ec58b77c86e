package session

import (
	"testing"

	"github.com/activeharmony/harmony-core/internal/harmonyerr"
	"github.com/activeharmony/harmony-core/internal/pipeline"
	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/strategy"
	"github.com/activeharmony/harmony-core/pkg/config"
)

func threeByThreeSpace(t *testing.T) *space.Space {
	t.Helper()
	i, err := space.NewIntegerDimension("i", 0, 2, 1)
	if err != nil {
		t.Fatalf("NewIntegerDimension: %v", err)
	}
	j, err := space.NewIntegerDimension("j", 0, 2, 1)
	if err != nil {
		t.Fatalf("NewIntegerDimension: %v", err)
	}
	sp, err := space.NewSpace(i, j)
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return sp
}

func sumPerf(p point.Point) point.Performance {
	return point.NewPerformance([]float64{p.Terms[0].Numeric() + p.Terms[1].Numeric()})
}

func newExhaustiveSession(t *testing.T) *Session {
	t.Helper()
	sp := threeByThreeSpace(t)
	strat := strategy.NewExhaustive(config.New())
	s, err := New(config.New(), sp, strat, pipeline.New(nil, nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestEndToEndExhaustiveScenario(t *testing.T) {
	s := newExhaustiveSession(t)

	var bestPrev uint64
	fetched := 0
	for i := 0; i < 20; i++ {
		res, err := s.Fetch(bestPrev)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if res.Busy {
			break
		}
		fetched++
		if !res.Best.IsNone() {
			bestPrev = res.Best.ID
		}
		if err := s.Report(res.Point.ID, sumPerf(res.Point)); err != nil {
			t.Fatalf("Report: %v", err)
		}
	}
	if fetched != 9 {
		t.Fatalf("fetched %d points, want 9 (3x3 space)", fetched)
	}
	best := s.Best()
	if best.Terms[0].Int != 0 || best.Terms[1].Int != 0 {
		t.Fatalf("Best() = %+v, want (0,0)", best)
	}
}

func TestKillDropsOutstandingTrial(t *testing.T) {
	s := newExhaustiveSession(t)
	res, err := s.Fetch(0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if err := s.Kill(res.Point.ID); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if err := s.Report(res.Point.ID, sumPerf(res.Point)); err != nil {
		t.Fatalf("Report after kill should be a silent no-op, got: %v", err)
	}
}

func TestKillUnknownIDFails(t *testing.T) {
	s := newExhaustiveSession(t)
	if err := s.Kill(999); err == nil {
		t.Fatalf("expected an error killing an unknown id")
	}
}

func TestReportUnknownIDIsNoOp(t *testing.T) {
	s := newExhaustiveSession(t)
	if err := s.Report(999, point.NewPerformance([]float64{1})); err != nil {
		t.Fatalf("Report of an unknown id should be a no-op, got: %v", err)
	}
}

// rejectingStage rejects every trial with Terms[0] == 0, handing back
// (1, existing second term) as the hint -- spec §8 scenario 5.
type rejectingStage struct{}

func (rejectingStage) Name() string { return "reject-first-zero" }

func (rejectingStage) Generate(flow *pipeline.Flow, p point.Point) (point.Point, error) {
	if p.Terms[0].Int == 0 {
		hint := p.Clone()
		hint.Terms[0] = space.IntValue(1)
		flow.Status = pipeline.Reject
		flow.Hint = hint
		return p, nil
	}
	flow.Status = pipeline.Accept
	return p, nil
}

func TestFetchRejectWithHintDeliversHintToClient(t *testing.T) {
	sp := threeByThreeSpace(t)
	strat := strategy.NewExhaustive(config.New())
	pl := pipeline.New([]pipeline.Stage{rejectingStage{}}, nil)
	s, err := New(config.New(), sp, strat, pl)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := s.Fetch(0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Point.Terms[0].Int != 1 {
		t.Fatalf("client should receive the hinted point, got %+v", res.Point)
	}
}

func TestNewRejectsNilSpace(t *testing.T) {
	_, err := New(config.New(), nil, strategy.NewExhaustive(config.New()), nil)
	if err == nil {
		t.Fatalf("expected an error for a nil space")
	}
	if _, ok := err.(*harmonyerr.SpaceMismatchError); !ok {
		t.Fatalf("error = %v (%T), want *harmonyerr.SpaceMismatchError", err, err)
	}
}

func TestJoinMintsDistinctClientIDs(t *testing.T) {
	s := newExhaustiveSession(t)
	a, err := s.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	b, err := s.Join()
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if a == "" || b == "" || a == b {
		t.Fatalf("Join ids = %q, %q, want distinct non-empty ids", a, b)
	}
}
