package strategy

import (
	"fmt"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/vertex"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

type proState int

const (
	proInit proState = iota
	proReflect
	proExpandOne
	proExpandAll
	proShrink
	proConvergedState
)

// PRO is a Nelder-Mead simplex variant: a base (reference) simplex and a
// test (candidate) simplex, advanced through the INIT -> REFLECT -> ...
// state machine described by the strategy's component design.
type PRO struct {
	cfg   *config.Store
	space *space.Space
	rng   *utils.RandSource

	reflectC, expandC, contractC, shrinkC float64
	convergeFV, convergeSZ                float64

	base, test        vertex.Simplex
	bestBase, bestTest int
	state             proState

	nextID      uint64
	sendIdx     int
	reported    int
	outstanding map[uint64]int // point id -> index into test

	best      point.Point
	bestPerf  point.Performance
	converged bool
}

// NewPRO builds a PRO strategy bound to cfg and rng.
func NewPRO(cfg *config.Store, rng *utils.RandSource) *PRO {
	if cfg == nil {
		cfg = config.New()
	}
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &PRO{cfg: cfg, rng: rng}
}

// Init implements Strategy.
func (p *PRO) Init(sp *space.Space) error {
	p.space = sp
	n := sp.Len()

	size := int(p.cfg.IntOr("SIMPLEX_SIZE", int64(n+1)))
	if size < n+1 {
		size = n + 1
	}

	p.reflectC = p.cfg.RealOr("REFLECT", 1.0)
	p.expandC = p.cfg.RealOr("EXPAND", 2.0)
	p.contractC = p.cfg.RealOr("CONTRACT", 0.5)
	p.shrinkC = p.cfg.RealOr("SHRINK", 0.5)
	p.convergeFV = p.cfg.RealOr("CONVERGE_FV", 1e-4)
	p.convergeSZ = p.cfg.RealOr("CONVERGE_SZ", 0.005*sp.Diameter())

	if err := validateCoefficients(p.reflectC, p.expandC, p.contractC, p.shrinkC); err != nil {
		return fmt.Errorf("strategy: pro: %w", err)
	}

	initMethod := p.cfg.Get("INIT_METHOD")
	if initMethod == "" {
		initMethod = "point"
	}
	initPercent := p.cfg.RealOr("INIT_PERCENT", 0.35)

	base, err := p.initialSimplex(size, initMethod, initPercent)
	if err != nil {
		return fmt.Errorf("strategy: pro: %w", err)
	}
	p.base = base
	p.test = base.Clone()
	p.bestBase = 0
	p.bestTest = 0
	p.state = proInit

	p.nextID = 1
	p.sendIdx = 0
	p.reported = 0
	p.outstanding = make(map[uint64]int)

	p.best = point.None()
	p.bestPerf = point.Reset(1)
	p.converged = false
	p.cfg.Set("CONVERGED", "0")
	return nil
}

// validateCoefficients checks each coefficient against its own bound. The
// original source guards EXPAND/CONTRACT/SHRINK's validity with a copy-paste
// of the REFLECT check; this implementation does not repeat that mistake.
func validateCoefficients(reflect, expand, contract, shrink float64) error {
	if reflect <= 0 {
		return fmt.Errorf("REFLECT must be positive, got %g", reflect)
	}
	if expand <= reflect {
		return fmt.Errorf("EXPAND must exceed REFLECT (%g), got %g", reflect, expand)
	}
	if contract <= 0 || contract >= 1 {
		return fmt.Errorf("CONTRACT must be in (0,1), got %g", contract)
	}
	if shrink <= 0 || shrink >= 1 {
		return fmt.Errorf("SHRINK must be in (0,1), got %g", shrink)
	}
	return nil
}

func (p *PRO) initialSimplex(size int, method string, percent float64) (vertex.Simplex, error) {
	n := p.space.Len()
	simplex := make(vertex.Simplex, size)

	if method == "random" {
		for i := range simplex {
			v := vertex.New(n, 1)
			pt := point.Point{Terms: p.space.Random(p.rng)}
			fv, err := vertex.FromPoint(p.space, pt)
			if err != nil {
				return nil, err
			}
			v.X = fv.X
			simplex[i] = v
		}
		return simplex, nil
	}

	center := make([]float64, n)
	if raw, ok := p.cfg.GetOK("INIT_POINT"); ok && raw != "" {
		terms, err := space.ParsePoint(p.space, raw)
		if err != nil {
			return nil, err
		}
		aligned, err := p.space.Align(terms)
		if err != nil {
			return nil, err
		}
		fv, err := vertex.FromPoint(p.space, point.Point{Terms: aligned})
		if err != nil {
			return nil, err
		}
		center = fv.X
	} else {
		for i := 0; i < n; i++ {
			d := p.space.Dim(i)
			center[i] = d.Min().Numeric() + d.Span()/2
			if d.Kind == space.DimEnum {
				center[i] = d.Span() / 2
			}
		}
	}

	simplex[0] = vertex.Vertex{X: append([]float64{}, center...), Perf: point.Reset(1)}
	for k := 1; k < size; k++ {
		x := append([]float64{}, center...)
		dim := (k - 1) % n
		span := p.space.Dim(dim).Span()
		delta := percent * span
		if method == "point_fast" {
			x[dim] += delta
		} else {
			// "point": alternate perturbation sign across successive
			// vertices so the simplex is more balanced around the center.
			if k%2 == 0 {
				x[dim] -= delta
			} else {
				x[dim] += delta
			}
		}
		simplex[k] = vertex.Vertex{X: x, Perf: point.Reset(1)}
	}
	return simplex, nil
}

// Generate implements Strategy.
func (p *PRO) Generate(flow *Flow) (point.Point, error) {
	if p.converged {
		flow.Status = Wait
		return point.None(), nil
	}
	if p.sendIdx >= len(p.test) {
		flow.Status = Wait
		return point.None(), nil
	}
	idx := p.sendIdx
	p.sendIdx++
	id := p.nextID
	p.nextID++

	pt, err := p.test[idx].ToPoint(p.space, id)
	if err != nil {
		return point.Point{}, fmt.Errorf("strategy: pro: %w", err)
	}
	p.outstanding[id] = idx
	flow.Status = Accept
	return pt, nil
}

// Rejected implements Strategy.
func (p *PRO) Rejected(flow *Flow, rejectedID uint64) (point.Point, error) {
	idx, tracked := p.outstanding[rejectedID]

	var terms []space.Value
	if !flow.Hint.IsNone() {
		terms = make([]space.Value, len(flow.Hint.Terms))
		copy(terms, flow.Hint.Terms)
	} else {
		terms = p.space.Random(p.rng)
	}

	if tracked {
		fv, err := vertex.FromPoint(p.space, point.Point{Terms: terms})
		if err == nil {
			p.test[idx].X = fv.X
		}
	}
	flow.Status = Accept
	return point.Point{ID: rejectedID, Terms: terms}, nil
}

// Analyze implements Strategy.
func (p *PRO) Analyze(trial *Trial) error {
	idx, tracked := p.outstanding[trial.Point.ID]
	if !tracked {
		return nil // rogue report, silently accepted as a no-op
	}
	delete(p.outstanding, trial.Point.ID)

	p.test[idx].Perf = trial.Perf.Clone()
	p.reported++

	if trial.Perf.Less(p.bestPerf) || p.best.IsNone() {
		p.bestPerf = trial.Perf.Clone()
		p.best = trial.Point.Clone()
	}

	if p.reported < len(p.test) {
		return nil
	}
	p.reported = 0
	p.sendIdx = 0
	p.step()
	return nil
}

// step runs the simplex algorithm once the full test simplex has reported,
// advancing the state machine and generating the next test simplex. If the
// generated simplex leaves the space, it is replaced by a SHRINK simplex,
// which moves every base vertex in toward the already-legal best vertex.
func (p *PRO) step() {
	bestIn := p.test.BestIndex()

	switch p.state {
	case proInit, proShrink:
		p.acceptTestAsBase(bestIn)
		p.state = proReflect
	case proReflect:
		if p.test[bestIn].Perf.Unify() < p.base[p.bestBase].Perf.Unify() {
			// Accept test as base, but only stash its best index in
			// bestTest -- bestBase keeps pointing at the previous base's
			// best vertex until EXPAND_ONE either confirms it (moving to
			// EXPAND_ALL) or replaces it with bestIn.
			p.base = p.test.Clone()
			p.bestTest = bestIn
			p.state = proExpandOne
		} else {
			p.state = proShrink
		}
	case proExpandOne:
		if p.test[0].Perf.Unify() < p.base[p.bestBase].Perf.Unify() {
			p.state = proExpandAll
		} else {
			p.bestBase = bestIn
			p.state = proReflect
		}
	case proExpandAll:
		if p.test[bestIn].Perf.Unify() < p.base[p.bestBase].Perf.Unify() {
			p.acceptTestAsBase(bestIn)
		}
		p.state = proReflect
	}

	if p.state == proReflect && p.checkConvergence() {
		p.state = proConvergedState
		p.converged = true
		p.cfg.Set("CONVERGED", "1")
		return
	}

	next := p.generateSimplex(p.state)
	if !next.InBounds(p.space) {
		p.state = proShrink
		next = p.generateSimplex(proShrink)
	}
	p.test = next
}

func (p *PRO) acceptTestAsBase(bestIn int) {
	p.base = p.test.Clone()
	p.bestBase = bestIn
}

func (p *PRO) generateSimplex(state proState) vertex.Simplex {
	size := len(p.base)
	next := make(vertex.Simplex, size)
	pivot := p.base[p.bestBase]

	switch state {
	case proReflect:
		for i, v := range p.base {
			next[i] = v.Transform(pivot, -p.reflectC)
		}
	case proExpandOne:
		expanded := p.base[p.bestTest].Transform(pivot, p.expandC)
		for i := range next {
			if i == 0 {
				next[i] = expanded
			} else {
				next[i] = pivot.Clone()
			}
		}
	case proExpandAll:
		for i, v := range p.base {
			next[i] = v.Transform(pivot, p.expandC)
		}
	case proShrink:
		for i, v := range p.base {
			next[i] = v.Transform(pivot, p.shrinkC)
		}
	default:
		for i, v := range p.base {
			next[i] = v.Clone()
		}
	}
	return next
}

// checkConvergence implements the fval/size test run whenever the state
// machine enters REFLECT: collapse of the base simplex, or a small enough
// spread of performance around the best vertex together with a small
// enough distance of every vertex from the centroid.
func (p *PRO) checkConvergence() bool {
	if p.base.Collapsed(p.space) {
		return true
	}
	centroid := p.base.Centroid(-1)
	ref := p.base[p.bestBase].Perf.Unify()
	msd := p.base.MeanSquaredDeviation(ref)
	maxDist := p.base.MaxDistTo(centroid)
	return msd < p.convergeFV && maxDist < p.convergeSZ
}

// Best implements Strategy.
func (p *PRO) Best() point.Point { return p.best }

// Converged implements Strategy.
func (p *PRO) Converged() bool { return p.converged }
