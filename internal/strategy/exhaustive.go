package strategy

import (
	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/pkg/config"
)

// Exhaustive enumerates every legal point of a finite space via an
// odometer: dimension 0 increments fastest, carrying into later dimensions
// on wrap. Real dimensions, which have no finite index, step by the next
// representable value above (space.Dimension.NextAbove) and wrap back to
// their minimum on overflow -- the same mechanism used for integer and enum
// dimensions, so the odometer loop does not need to special-case them.
type Exhaustive struct {
	cfg   *config.Store
	space *space.Space

	next []space.Value

	remainingPasses int64
	finalID         uint64
	outstanding     map[uint64]bool
	finalReceived   bool
	doneGenerating  bool

	nextID uint64

	best     point.Point
	bestPerf point.Performance
	converged bool
}

// NewExhaustive builds an Exhaustive strategy bound to cfg. Call Init
// before use.
func NewExhaustive(cfg *config.Store) *Exhaustive {
	if cfg == nil {
		cfg = config.New()
	}
	return &Exhaustive{cfg: cfg}
}

// Init implements Strategy.
func (e *Exhaustive) Init(sp *space.Space) error {
	e.space = sp
	e.next = make([]space.Value, sp.Len())
	for i := 0; i < sp.Len(); i++ {
		e.next[i] = sp.Dim(i).Min()
	}
	e.remainingPasses = e.cfg.IntOr("PASSES", 1)
	if e.remainingPasses <= 0 {
		e.remainingPasses = 1
	}
	e.finalID = 0
	e.outstanding = make(map[uint64]bool)
	e.finalReceived = false
	e.doneGenerating = false
	e.nextID = 1
	e.best = point.None()
	e.bestPerf = point.Reset(1)
	e.converged = false
	e.cfg.Set("CONVERGED", "0")
	return nil
}

// Generate implements Strategy. Once the odometer has produced the id that
// completes the configured number of passes, there is nothing left to
// enumerate and every further Generate call reports WAIT rather than
// re-emitting an id already seen.
func (e *Exhaustive) Generate(flow *Flow) (point.Point, error) {
	if e.converged || e.doneGenerating {
		flow.Status = Wait
		return point.None(), nil
	}
	terms := make([]space.Value, len(e.next))
	copy(terms, e.next)
	id := e.nextID
	e.nextID++
	e.outstanding[id] = true

	e.advance(id)

	flow.Status = Accept
	return point.Point{ID: id, Terms: terms}, nil
}

// advance steps the odometer by one position and, on a full wrap, retires a
// pass. The id just handed out is latched into finalID only on the
// transition from remainingPasses>0 to remainingPasses<=0 -- doneGenerating
// then prevents any further odometer steps, so that transition happens
// exactly once.
func (e *Exhaustive) advance(justGeneratedID uint64) {
	wrappedAll := true
	for i := 0; i < len(e.next); i++ {
		v, ok := e.space.Dim(i).NextAbove(e.next[i])
		e.next[i] = v
		if ok {
			wrappedAll = false
			break
		}
	}
	if wrappedAll {
		e.remainingPasses--
		if e.remainingPasses <= 0 {
			e.finalID = justGeneratedID
			e.doneGenerating = true
		}
	}
}

// Rejected implements Strategy. Without a hint, the strategy hands back the
// term set at the current odometer position, keeping the rejected id. The
// odometer is not advanced, so the next Generate call produces that same
// term set again under a new id.
func (e *Exhaustive) Rejected(flow *Flow, rejectedID uint64) (point.Point, error) {
	flow.Status = Accept
	if !flow.Hint.IsNone() {
		terms := make([]space.Value, len(flow.Hint.Terms))
		copy(terms, flow.Hint.Terms)
		return point.Point{ID: rejectedID, Terms: terms}, nil
	}
	terms := make([]space.Value, len(e.next))
	copy(terms, e.next)
	return point.Point{ID: rejectedID, Terms: terms}, nil
}

// Analyze implements Strategy.
func (e *Exhaustive) Analyze(trial *Trial) error {
	delete(e.outstanding, trial.Point.ID)

	if trial.Perf.Less(e.bestPerf) || e.best.IsNone() {
		e.bestPerf = trial.Perf.Clone()
		e.best = trial.Point.Clone()
	}
	if e.finalID != 0 && trial.Point.ID == e.finalID {
		e.finalReceived = true
	}
	if e.finalReceived && len(e.outstanding) == 0 {
		e.converged = true
		e.cfg.Set("CONVERGED", "1")
	}
	return nil
}

// Best implements Strategy.
func (e *Exhaustive) Best() point.Point { return e.best }

// Converged implements Strategy.
func (e *Exhaustive) Converged() bool { return e.converged }
