package strategy

import (
	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

// Random uniformly samples each coordinate of the space independently. It
// never converges; it exists mainly as a baseline for comparing smarter
// strategies against. It honors INIT_POINT as its first candidate and keeps
// one vertex pre-generated a call ahead, matching the one-ahead buffering of
// the strategy it is grounded on.
type Random struct {
	cfg   *config.Store
	space *space.Space
	rng   *utils.RandSource

	next   point.Point
	nextID uint64

	best     point.Point
	bestPerf point.Performance
}

// NewRandom builds a Random strategy bound to cfg and rng.
func NewRandom(cfg *config.Store, rng *utils.RandSource) *Random {
	if cfg == nil {
		cfg = config.New()
	}
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &Random{cfg: cfg, rng: rng}
}

// Init implements Strategy.
func (r *Random) Init(sp *space.Space) error {
	r.space = sp
	r.nextID = 1
	r.best = point.None()
	r.bestPerf = point.Reset(1)

	if raw, ok := r.cfg.GetOK("INIT_POINT"); ok && raw != "" {
		terms, err := space.ParsePoint(sp, raw)
		if err != nil {
			return err
		}
		aligned, err := sp.Align(terms)
		if err != nil {
			return err
		}
		r.next = point.Point{ID: r.nextID, Terms: aligned}
	} else {
		r.next = point.Point{ID: r.nextID, Terms: sp.Random(r.rng)}
	}
	r.cfg.Set("CONVERGED", "0")
	return nil
}

// Generate implements Strategy.
func (r *Random) Generate(flow *Flow) (point.Point, error) {
	out := r.next.Clone()
	r.nextID++
	r.next = point.Point{ID: r.nextID, Terms: r.space.Random(r.rng)}
	flow.Status = Accept
	return out, nil
}

// Rejected implements Strategy.
func (r *Random) Rejected(flow *Flow, rejectedID uint64) (point.Point, error) {
	flow.Status = Accept
	if !flow.Hint.IsNone() {
		terms := make([]space.Value, len(flow.Hint.Terms))
		copy(terms, flow.Hint.Terms)
		return point.Point{ID: rejectedID, Terms: terms}, nil
	}
	return point.Point{ID: rejectedID, Terms: r.space.Random(r.rng)}, nil
}

// Analyze implements Strategy.
func (r *Random) Analyze(trial *Trial) error {
	if trial.Perf.Less(r.bestPerf) || r.best.IsNone() {
		r.bestPerf = trial.Perf.Clone()
		r.best = trial.Point.Clone()
	}
	return nil
}

// Best implements Strategy.
func (r *Random) Best() point.Point { return r.best }

// Converged implements Strategy. Random never converges.
func (r *Random) Converged() bool { return false }
