package strategy

import (
	"fmt"
	"math"
	"strconv"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/vertex"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

type angelState int

const (
	angelInit angelState = iota
	angelReflect
	angelExpand
	angelContract
	angelShrink
	angelConverged
)

// nextRef identifies which variable the strategy's current candidate
// vertex aliases, mirroring the "data->next" pointer of the classic
// one-vertex-at-a-time Nelder-Mead this strategy is grounded on.
type nextRef int

const (
	refSimplexSlot nextRef = iota
	refReflect
	refExpand
	refContract
)

// ANGEL runs one phase of a lexicographic multi-objective search per
// objective priority: each phase optimizes one objective with its own
// classic Nelder-Mead simplex, subject to a penalty for straying beyond the
// leeway-derived threshold set by earlier (higher-priority) phases.
type ANGEL struct {
	cfg   *config.Store
	space *space.Space
	rng   *utils.RandSource

	rejectRandom bool
	reflectC, expandC, contractC, shrinkC float64

	distTolSet bool
	distTol    float64
	tolCnt     int
	fvalTol    float64
	sizeTol    float64
	spaceSize  float64

	loose, anchor, sameSimplex bool
	mult                       float64
	leeway                     []float64

	nObjectives int
	phase       int
	thresh      []float64
	spanMin     []float64
	spanMax     []float64

	initSimplex vertex.Simplex
	simplex     vertex.Simplex
	indexBest   int
	indexWorst  int
	indexCurr   int
	centroid    vertex.Vertex
	moveLen     float64

	reflectV, expandV, contractV vertex.Vertex

	state    angelState
	nextKind nextRef
	nextSlot int

	nextID    uint64
	pending   bool
	pendingID uint64

	flatCount     int
	distTolCount  int

	best      point.Point
	bestPerf  point.Performance
	converged bool
}

// NewANGEL builds an ANGEL strategy bound to cfg and rng.
func NewANGEL(cfg *config.Store, rng *utils.RandSource) *ANGEL {
	if cfg == nil {
		cfg = config.New()
	}
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &ANGEL{cfg: cfg, rng: rng}
}

// Init implements Strategy.
func (a *ANGEL) Init(sp *space.Space) error {
	a.space = sp
	if err := a.configure(); err != nil {
		return fmt.Errorf("strategy: angel: %w", err)
	}

	initSimplex, err := a.buildInitialSimplex()
	if err != nil {
		return fmt.Errorf("strategy: angel: %w", err)
	}
	a.initSimplex = initSimplex
	a.simplex = initSimplex.Clone()
	a.indexBest, a.indexWorst, a.indexCurr = 0, 0, 0
	a.phase = -1
	a.best = point.None()
	a.bestPerf = point.Reset(a.nObjectives)
	a.flatCount = 0
	a.distTolCount = 0
	a.converged = false
	a.cfg.Set("CONVERGED", "0")
	a.nextID = 1
	a.pending = false

	if err := a.incrementPhase(); err != nil {
		return fmt.Errorf("strategy: angel: %w", err)
	}
	a.computeNextVertex()
	return nil
}

func boolOr(cfg *config.Store, key string, def bool) bool {
	v, ok := cfg.GetOK(key)
	if !ok || v == "" {
		return def
	}
	b, err := config.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (a *ANGEL) configure() error {
	a.loose = boolOr(a.cfg, "ANGEL_LOOSE", false)
	a.anchor = boolOr(a.cfg, "ANGEL_ANCHOR", true)
	a.sameSimplex = boolOr(a.cfg, "ANGEL_SAMESIMPLEX", true)
	a.mult = a.cfg.RealOr("ANGEL_MULT", 1.0)

	switch method := a.cfg.Get("REJECT_METHOD"); method {
	case "", "penalty":
		a.rejectRandom = false
	case "random":
		a.rejectRandom = true
	default:
		return fmt.Errorf("REJECT_METHOD must be %q or %q, got %q", "penalty", "random", method)
	}

	a.reflectC = a.cfg.RealOr("REFLECT", 1.0)
	a.expandC = a.cfg.RealOr("EXPAND", 2.0)
	a.contractC = a.cfg.RealOr("CONTRACT", 0.5)
	a.shrinkC = a.cfg.RealOr("SHRINK", 0.5)
	if err := validateCoefficients(a.reflectC, a.expandC, a.contractC, a.shrinkC); err != nil {
		return err
	}

	a.nObjectives = int(a.cfg.IntOr("PERF_COUNT", 1))
	if a.nObjectives < 1 {
		return fmt.Errorf("PERF_COUNT must be at least 1, got %d", a.nObjectives)
	}

	a.spaceSize = a.space.Diameter()

	if raw, ok := a.cfg.GetOK("DIST_TOL"); ok && raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			return fmt.Errorf("DIST_TOL must be in (0,1), got %q", raw)
		}
		a.distTolSet = true
		a.distTol = v * a.spaceSize
		a.tolCnt = int(a.cfg.IntOr("TOL_CNT", 3))
		if a.tolCnt < 1 {
			return fmt.Errorf("TOL_CNT must be greater than zero")
		}
	} else {
		a.distTolSet = false
		a.fvalTol = a.cfg.RealOr("FVAL_TOL", 1e-4)
		sizeFrac := a.cfg.RealOr("SIZE_TOL", 0.005)
		if sizeFrac <= 0 || sizeFrac >= 1 {
			return fmt.Errorf("SIZE_TOL must be in (0,1), got %g", sizeFrac)
		}
		a.sizeTol = sizeFrac * a.spaceSize
	}

	need := a.nObjectives - 1
	if raw, ok := a.cfg.GetOK("ANGEL_LEEWAY"); ok && raw != "" {
		n := a.cfg.ArrayLen("ANGEL_LEEWAY")
		if n != need {
			return fmt.Errorf("ANGEL_LEEWAY needs %d values for %d objectives, got %d", need, a.nObjectives, n)
		}
		a.leeway = make([]float64, n)
		for i := 0; i < n; i++ {
			item, _ := a.cfg.ArrayItem("ANGEL_LEEWAY", i)
			v, err := strconv.ParseFloat(item, 64)
			if err != nil || v < 0 || v > 1 {
				return fmt.Errorf("ANGEL_LEEWAY item %d must be in [0,1], got %q", i, item)
			}
			a.leeway[i] = v
		}
	} else if need > 0 {
		return fmt.Errorf("ANGEL_LEEWAY must be defined for %d objectives", a.nObjectives)
	}

	a.thresh = make([]float64, need)
	a.spanMin = make([]float64, a.nObjectives)
	a.spanMax = make([]float64, a.nObjectives)
	for i := 0; i < a.nObjectives; i++ {
		a.spanMin[i] = math.Inf(1)
		a.spanMax[i] = math.Inf(-1)
	}
	return nil
}

func (a *ANGEL) buildInitialSimplex() (vertex.Simplex, error) {
	n := a.space.Len()
	center := make([]float64, n)

	if raw, ok := a.cfg.GetOK("INIT_POINT"); ok && raw != "" {
		terms, err := space.ParsePoint(a.space, raw)
		if err != nil {
			return nil, err
		}
		aligned, err := a.space.Align(terms)
		if err != nil {
			return nil, err
		}
		fv, err := vertex.FromPoint(a.space, point.Point{Terms: aligned})
		if err != nil {
			return nil, err
		}
		center = fv.X
	} else {
		for i := 0; i < n; i++ {
			d := a.space.Dim(i)
			if d.Kind == space.DimEnum {
				center[i] = d.Span() / 2
			} else {
				center[i] = d.Min().Numeric() + d.Span()/2
			}
		}
	}

	initRadius := a.cfg.RealOr("INIT_RADIUS", 0.50)
	if initRadius <= 0 || initRadius > 1 {
		return nil, fmt.Errorf("INIT_RADIUS must be in (0,1], got %g", initRadius)
	}

	simplex := make(vertex.Simplex, n+1)
	simplex[0] = vertex.Vertex{X: append([]float64{}, center...), Perf: point.Reset(a.nObjectives)}
	for k := 0; k < n; k++ {
		x := append([]float64{}, center...)
		x[k] += initRadius * a.space.Dim(k).Span()
		simplex[k+1] = vertex.Vertex{X: x, Perf: point.Reset(a.nObjectives)}
	}
	return simplex, nil
}

// incrementPhase closes out the previous phase's threshold (if any), moves
// to the next objective, and resets the simplex -- anchoring the previous
// phase's best vertex into it when ANGEL_ANCHOR is set.
func (a *ANGEL) incrementPhase() error {
	if a.phase >= 0 {
		tval := a.spanMax[a.phase] - a.spanMin[a.phase]
		tval *= a.leeway[a.phase]
		tval += a.spanMin[a.phase]
		a.thresh[a.phase] = tval
	}
	a.phase++
	a.cfg.Set("ANGEL_PHASE", strconv.Itoa(a.phase))

	prevBest := a.simplex[a.indexBest].Clone()

	if !a.sameSimplex {
		rebuilt, err := a.buildInitialSimplex()
		if err != nil {
			return err
		}
		a.initSimplex = rebuilt
	}
	next := a.initSimplex.Clone()

	if !a.best.IsNone() && a.anchor {
		minDist := math.Inf(1)
		idx := -1
		for i, v := range next {
			if d := prevBest.Dist(v); d < minDist {
				minDist = d
				idx = i
			}
		}
		if idx >= 0 {
			next[idx] = prevBest
		}
	}

	a.simplex = next
	a.bestPerf = point.Reset(a.nObjectives)
	a.best = point.None()
	a.state = angelInit
	a.indexCurr = 0
	return nil
}

// Generate implements Strategy.
func (a *ANGEL) Generate(flow *Flow) (point.Point, error) {
	if a.converged || a.pending {
		flow.Status = Wait
		return point.None(), nil
	}
	id := a.nextID
	a.nextID++
	pt, err := a.currentNextVertex().ToPoint(a.space, id)
	if err != nil {
		return point.Point{}, fmt.Errorf("strategy: angel: %w", err)
	}
	a.pendingID = id
	a.pending = true
	flow.Status = Accept
	return pt, nil
}

// Rejected implements Strategy.
func (a *ANGEL) Rejected(flow *Flow, rejectedID uint64) (point.Point, error) {
	if !flow.Hint.IsNone() {
		terms := make([]space.Value, len(flow.Hint.Terms))
		copy(terms, flow.Hint.Terms)
		if fv, err := vertex.FromPoint(a.space, point.Point{Terms: terms}); err == nil {
			a.writeNextCoords(fv.X)
		}
		a.pendingID = rejectedID
		a.pending = true
		flow.Status = Accept
		return point.Point{ID: rejectedID, Terms: terms}, nil
	}

	if a.rejectRandom {
		terms := a.space.Random(a.rng)
		if fv, err := vertex.FromPoint(a.space, point.Point{Terms: terms}); err == nil {
			a.writeNextCoords(fv.X)
		}
		a.pendingID = rejectedID
		a.pending = true
		flow.Status = Accept
		return point.Point{ID: rejectedID, Terms: terms}, nil
	}

	// Penalty method: treat the rejected candidate as performing arbitrarily
	// badly on every objective and let the algorithm pick the next one.
	a.setNextPerf(point.Reset(a.nObjectives))
	if err := a.nmAlgorithm(); err != nil {
		return point.Point{}, fmt.Errorf("strategy: angel: %w", err)
	}
	pt, err := a.currentNextVertex().ToPoint(a.space, rejectedID)
	if err != nil {
		return point.Point{}, fmt.Errorf("strategy: angel: %w", err)
	}
	a.pendingID = rejectedID
	a.pending = true
	flow.Status = Accept
	return pt, nil
}

// Analyze implements Strategy.
func (a *ANGEL) Analyze(trial *Trial) error {
	if trial.Point.ID != a.pendingID {
		return nil // rogue report, silently accepted as a no-op
	}
	a.pending = false

	perf := trial.Perf.Clone()
	for i := 0; i < a.nObjectives; i++ {
		if perf.Obj[i] < a.spanMin[i] {
			a.spanMin[i] = perf.Obj[i]
		}
		if perf.Obj[i] > a.spanMax[i] && !math.IsInf(perf.Obj[i], 1) {
			a.spanMax[i] = perf.Obj[i]
		}
	}

	penalty := 0.0
	penaltyBase := 1.0
	for i := a.phase - 1; i >= 0; i-- {
		if perf.Obj[i] > a.thresh[i] {
			if !a.loose {
				penalty += penaltyBase
			}
			fraction := (perf.Obj[i] - a.thresh[i]) / (a.spanMax[i] - a.thresh[i])
			penalty += 1.0 / (1.0 - math.Log(fraction))
		}
		penaltyBase *= 2
	}
	if penalty > 0.0 {
		if a.loose {
			penalty += 1.0
		}
		span := a.spanMax[a.phase] - a.spanMin[a.phase]
		perf.Obj[a.phase] += penalty * span * a.mult
	}
	a.setNextPerf(perf)

	if a.best.IsNone() || perf.Obj[a.phase] < a.bestPerf.Obj[a.phase] {
		a.bestPerf = perf.Clone()
		a.best = trial.Point.Clone()
	}

	if err := a.nmAlgorithm(); err != nil {
		return fmt.Errorf("strategy: angel: %w", err)
	}
	return nil
}

// nmAlgorithm advances the current phase's simplex by exactly one
// transition, looping internally (without ever dispatching a candidate)
// until it produces an in-bounds vertex or the whole search converges.
func (a *ANGEL) nmAlgorithm() error {
	for {
		if a.state == angelConverged {
			return nil
		}
		a.stateTransition()
		if a.state == angelReflect {
			a.updateCentroid()
			if err := a.checkConvergence(); err != nil {
				return err
			}
		}
		a.computeNextVertex()
		if a.state == angelConverged || vertex.VertexInBounds(a.space, a.currentNextVertex()) {
			return nil
		}
	}
}

func (a *ANGEL) stateTransition() {
	switch a.state {
	case angelInit, angelShrink:
		a.indexCurr++
		if a.indexCurr == a.space.Len()+1 {
			a.updateCentroid()
			a.state = angelReflect
			a.indexCurr = 0
		}
	case angelReflect:
		bestPerf := a.simplex[a.indexBest].Perf.Obj[a.phase]
		worstPerf := a.simplex[a.indexWorst].Perf.Obj[a.phase]
		rp := a.reflectV.Perf.Obj[a.phase]
		switch {
		case rp < bestPerf:
			a.state = angelExpand
		case rp < worstPerf:
			a.simplex[a.indexWorst] = a.reflectV.Clone()
			a.updateCentroid()
		default:
			a.state = angelContract
		}
	case angelExpand:
		if a.expandV.Perf.Obj[a.phase] < a.simplex[a.indexBest].Perf.Obj[a.phase] {
			a.simplex[a.indexWorst] = a.expandV.Clone()
		} else {
			a.simplex[a.indexWorst] = a.reflectV.Clone()
		}
		a.updateCentroid()
		a.state = angelReflect
	case angelContract:
		if a.contractV.Perf.Obj[a.phase] < a.simplex[a.indexWorst].Perf.Obj[a.phase] {
			a.simplex[a.indexWorst] = a.contractV.Clone()
			a.updateCentroid()
			a.state = angelReflect
		} else {
			a.indexCurr = -1
			a.state = angelShrink
		}
	}
}

func (a *ANGEL) updateCentroid() {
	a.indexBest, a.indexWorst = 0, 0
	for i := 1; i < len(a.simplex); i++ {
		if a.simplex[i].Perf.Obj[a.phase] < a.simplex[a.indexBest].Perf.Obj[a.phase] {
			a.indexBest = i
		}
		if a.simplex[i].Perf.Obj[a.phase] > a.simplex[a.indexWorst].Perf.Obj[a.phase] {
			a.indexWorst = i
		}
	}
	a.centroid = a.simplex.Centroid(-1)
}

// checkConvergence runs the four independent convergence tests described
// for this phase's simplex: flatness over consecutive reflections, simplex
// collapse, distance-moved tolerance (if configured), and otherwise a
// combined function-value/size tolerance test. A positive result either
// ends the whole search (on the final phase) or starts the next phase.
func (a *ANGEL) checkConvergence() error {
	flat := true
	ref := a.simplex[0].Perf.Obj[a.phase]
	for i := 1; i < len(a.simplex); i++ {
		if a.simplex[i].Perf.Obj[a.phase] != ref {
			flat = false
			break
		}
	}
	if flat {
		a.flatCount++
		if a.flatCount >= 3 {
			a.flatCount = 0
			return a.onConverged()
		}
	} else {
		a.flatCount = 0
	}

	if a.simplex.Collapsed(a.space) {
		return a.onConverged()
	}

	if a.distTolSet {
		if a.moveLen < a.distTol {
			a.distTolCount++
			if a.distTolCount >= a.tolCnt {
				a.distTolCount = 0
				return a.onConverged()
			}
		} else {
			a.distTolCount = 0
		}
		return nil
	}

	phaseVals := make([]float64, len(a.simplex))
	for i, v := range a.simplex {
		phaseVals[i] = v.Perf.Obj[a.phase]
	}
	fvalErr := utils.Variance(phaseVals)

	sizeMax := 0.0
	for _, v := range a.simplex {
		if d := v.Dist(a.centroid); d > sizeMax {
			sizeMax = d
		}
	}
	if fvalErr < a.fvalTol && sizeMax < a.sizeTol {
		return a.onConverged()
	}
	return nil
}

func (a *ANGEL) onConverged() error {
	if a.phase == a.nObjectives-1 {
		a.state = angelConverged
		a.converged = true
		a.cfg.Set("CONVERGED", "1")
		return nil
	}
	return a.incrementPhase()
}

func (a *ANGEL) computeNextVertex() {
	switch a.state {
	case angelInit:
		a.nextKind, a.nextSlot = refSimplexSlot, a.indexCurr
	case angelReflect:
		a.reflectV = a.simplex[a.indexWorst].Transform(a.centroid, a.reflectC)
		a.moveLen = a.simplex[a.indexWorst].Dist(a.reflectV) / a.spaceSize
		a.nextKind = refReflect
	case angelExpand:
		a.expandV = a.simplex[a.indexWorst].Transform(a.centroid, a.expandC)
		a.nextKind = refExpand
	case angelContract:
		a.contractV = a.centroid.Transform(a.simplex[a.indexWorst], -a.contractC)
		a.nextKind = refContract
	case angelShrink:
		if a.indexCurr == -1 {
			shrunk := make(vertex.Simplex, len(a.simplex))
			for i, v := range a.simplex {
				shrunk[i] = v.Transform(a.simplex[a.indexBest], -a.shrinkC)
			}
			a.simplex = shrunk
			a.indexCurr = 0
		}
		a.nextKind, a.nextSlot = refSimplexSlot, a.indexCurr
	case angelConverged:
		a.nextKind, a.nextSlot = refSimplexSlot, a.indexBest
	}
	a.setNextPerf(point.Reset(a.nObjectives))
}

func (a *ANGEL) currentNextVertex() vertex.Vertex {
	switch a.nextKind {
	case refReflect:
		return a.reflectV
	case refExpand:
		return a.expandV
	case refContract:
		return a.contractV
	default:
		return a.simplex[a.nextSlot]
	}
}

func (a *ANGEL) setNextPerf(p point.Performance) {
	switch a.nextKind {
	case refReflect:
		a.reflectV.Perf = p
	case refExpand:
		a.expandV.Perf = p
	case refContract:
		a.contractV.Perf = p
	default:
		a.simplex[a.nextSlot].Perf = p
	}
}

func (a *ANGEL) writeNextCoords(x []float64) {
	switch a.nextKind {
	case refReflect:
		a.reflectV.X = x
	case refExpand:
		a.expandV.X = x
	case refContract:
		a.contractV.X = x
	default:
		a.simplex[a.nextSlot].X = x
	}
}

// Best implements Strategy.
func (a *ANGEL) Best() point.Point { return a.best }

// Converged implements Strategy.
func (a *ANGEL) Converged() bool { return a.converged }
