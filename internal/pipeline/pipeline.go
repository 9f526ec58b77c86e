// Package pipeline implements the ordered list of processing stages a
// candidate point passes through on its way out to a client (the forward
// pass) and a reported performance passes through on its way back to the
// strategy (the reverse pass). Stages are a capability set: a concrete
// stage implements whichever of Initializer/Joiner/Generator/Analyzer/
// Finalizer it needs, mirroring the way strategy.Strategy is a fixed
// interface but individual pipeline stages in the original are a much
// looser plugin contract.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/strategy"
	"github.com/activeharmony/harmony-core/pkg/logger"
)

// Flow and FlowStatus are the same control-flow record strategies use
// (internal/strategy.Flow): the pipeline and the strategy threading the
// same type means a stage's REJECT hint flows straight into
// Strategy.Rejected without translation.
type Flow = strategy.Flow
type FlowStatus = strategy.FlowStatus

const (
	Accept = strategy.Accept
	Reject = strategy.Reject
	Wait   = strategy.Wait
	Return = strategy.Return
	Retry  = strategy.Retry
)

// Stage is the minimal contract every pipeline stage satisfies. Concrete
// behavior comes from the optional capability interfaces below; a stage
// that implements none of them is legal but inert.
type Stage interface {
	Name() string
}

// Allocator is called once, before Init, to let a stage set up per-session
// state (the original's "alloc" callback). Stages built as ordinary struct
// values rarely need this; it exists for stages that lazily build state
// shared across Init/Generate/Analyze.
type Allocator interface {
	Alloc() error
}

// Initializer is called once with the session's space, before any trial
// flows through the pipeline.
type Initializer interface {
	Init(sp *space.Space) error
}

// Joiner is notified when a client joins the session.
type Joiner interface {
	Join(clientID string) error
}

// Generator processes a candidate point on the forward pass.
type Generator interface {
	Generate(flow *Flow, p point.Point) (point.Point, error)
}

// Analyzer processes a reported trial on the reverse pass.
type Analyzer interface {
	Analyze(flow *Flow, trial *strategy.Trial) error
}

// Finalizer is called once at session teardown.
type Finalizer interface {
	Fini() error
}

// Resumer is implemented by a stage that can park a trial (by returning
// Wait) and later decide some of its parked trials are ready to resume. The
// pipeline polls Ready instead of retrying blindly, per the parked-trials
// queue design (replacing the original's ad hoc WAIT retry loop).
type Resumer interface {
	Ready() []uint64
}

// direction distinguishes the forward (generate) and reverse (analyze)
// passes for the parked-trial bookkeeping.
type direction int

const (
	forward direction = iota
	reverse
)

// parked is one trial suspended at a stage, waiting for that stage to
// report it ready via Resumer.Ready.
type parked struct {
	id    uint64
	point point.Point
	trial *strategy.Trial
}

// Pipeline is the ordered list of stages a session drives a trial through.
// Forward pass order is the configured list; reverse pass order is the
// reverse of it, per spec §4.4.
type Pipeline struct {
	stages []Stage
	log    *slog.Logger

	// parked[direction][stageIndex][id] holds trials suspended at that
	// stage in that direction, keyed for O(1) lookup when Resumer.Ready
	// names the ids it wants re-examined.
	parked [2]map[int]map[uint64]parked
}

// New builds a pipeline over stages in the given (forward) order. log
// defaults to the package logger when nil.
func New(stages []Stage, log *slog.Logger) *Pipeline {
	if log == nil {
		log = logger.Default
	}
	return &Pipeline{
		stages: stages,
		log:    log,
		parked: [2]map[int]map[uint64]parked{
			forward: make(map[int]map[uint64]parked),
			reverse: make(map[int]map[uint64]parked),
		},
	}
}

// Stages returns the configured stage list, in forward order.
func (pl *Pipeline) Stages() []Stage { return pl.stages }

// Alloc calls Alloc on every stage that implements Allocator, in forward
// order.
func (pl *Pipeline) Alloc() error {
	for _, st := range pl.stages {
		if a, ok := st.(Allocator); ok {
			if err := a.Alloc(); err != nil {
				return fmt.Errorf("pipeline: stage %q alloc: %w", st.Name(), err)
			}
		}
	}
	return nil
}

// Init calls Init on every stage that implements Initializer, in forward
// order.
func (pl *Pipeline) Init(sp *space.Space) error {
	for _, st := range pl.stages {
		if i, ok := st.(Initializer); ok {
			if err := i.Init(sp); err != nil {
				return fmt.Errorf("pipeline: stage %q init: %w", st.Name(), err)
			}
		}
	}
	return nil
}

// Join notifies every stage that implements Joiner of a new client.
func (pl *Pipeline) Join(clientID string) error {
	for _, st := range pl.stages {
		if j, ok := st.(Joiner); ok {
			if err := j.Join(clientID); err != nil {
				return fmt.Errorf("pipeline: stage %q join: %w", st.Name(), err)
			}
		}
	}
	return nil
}

// Fini calls Fini on every stage that implements Finalizer, in forward
// order. The first error is fatal (per spec §7) but every stage still gets
// a chance to release its own resources.
func (pl *Pipeline) Fini() error {
	var first error
	for _, st := range pl.stages {
		if f, ok := st.(Finalizer); ok {
			if err := f.Fini(); err != nil && first == nil {
				first = fmt.Errorf("pipeline: stage %q fini: %w", st.Name(), err)
			}
		}
	}
	return first
}

// Forward drives p through the forward pass starting at stage index from
// (0 for a fresh trial, or a parked stage index on resume). It returns the
// (possibly replaced) point and the flow that ended the pass: Accept means
// every stage saw and accepted it, anything else means the caller must act
// (deliver a Return point, invoke Strategy.Rejected on Reject, park on
// Wait, or re-ask the strategy to generate on Retry).
func (pl *Pipeline) Forward(id uint64, p point.Point, from int) (point.Point, Flow, error) {
	flow := Flow{Status: Accept}
	for i := from; i < len(pl.stages); i++ {
		st := pl.stages[i]
		gen, ok := st.(Generator)
		if !ok {
			continue
		}
		out, err := gen.Generate(&flow, p)
		if err != nil {
			return p, flow, fmt.Errorf("pipeline: stage %q generate: %w", st.Name(), err)
		}
		switch flow.Status {
		case Accept:
			p = out
		case Reject:
			pl.log.Debug("pipeline rejected point", "stage", st.Name(), "id", id)
			return p, flow, nil
		case Wait:
			pl.park(forward, i, parked{id: id, point: p})
			pl.log.Debug("pipeline parked point", "stage", st.Name(), "id", id)
			return p, flow, nil
		case Return:
			return out, flow, nil
		case Retry:
			return p, flow, nil
		default:
			return p, flow, fmt.Errorf("pipeline: stage %q: unknown flow status %v", st.Name(), flow.Status)
		}
	}
	return p, flow, nil
}

// Reverse drives trial through the reverse pass starting at stage index
// from (len(stages)-1 for a fresh report, or a parked stage index on
// resume). Stages are visited in reverse configured order.
func (pl *Pipeline) Reverse(trial *strategy.Trial, from int) (Flow, error) {
	flow := Flow{Status: Accept}
	if from < 0 {
		from = len(pl.stages) - 1
	}
	for i := from; i >= 0; i-- {
		st := pl.stages[i]
		an, ok := st.(Analyzer)
		if !ok {
			continue
		}
		if err := an.Analyze(&flow, trial); err != nil {
			return flow, fmt.Errorf("pipeline: stage %q analyze: %w", st.Name(), err)
		}
		switch flow.Status {
		case Accept:
			continue
		case Reject:
			pl.log.Debug("pipeline rejected report", "stage", st.Name(), "id", trial.Point.ID)
			return flow, nil
		case Wait:
			pl.park(reverse, i, parked{id: trial.Point.ID, trial: trial})
			pl.log.Debug("pipeline parked report", "stage", st.Name(), "id", trial.Point.ID)
			return flow, nil
		case Return:
			return flow, nil
		case Retry:
			return flow, nil
		default:
			return flow, fmt.Errorf("pipeline: stage %q: unknown flow status %v", st.Name(), flow.Status)
		}
	}
	return flow, nil
}

func (pl *Pipeline) park(dir direction, stageIdx int, p parked) {
	if pl.parked[dir][stageIdx] == nil {
		pl.parked[dir][stageIdx] = make(map[uint64]parked)
	}
	pl.parked[dir][stageIdx][p.id] = p
}

// ResumeForward polls every stage implementing Resumer for ids it now
// considers ready, and re-drives each of them through the remainder of the
// forward pass (starting at the stage immediately after the one that
// parked it). It returns one (id, point, flow) result per trial that moved.
type ForwardResumption struct {
	ID    uint64
	Point point.Point
	Flow  Flow
}

func (pl *Pipeline) ResumeForward() ([]ForwardResumption, error) {
	var out []ForwardResumption
	for i, st := range pl.stages {
		res, ok := st.(Resumer)
		if !ok {
			continue
		}
		bucket := pl.parked[forward][i]
		for _, id := range res.Ready() {
			pt, ok := bucket[id]
			if !ok {
				continue
			}
			delete(bucket, id)
			p, flow, err := pl.Forward(id, pt.point, i+1)
			if err != nil {
				return out, err
			}
			out = append(out, ForwardResumption{ID: id, Point: p, Flow: flow})
		}
	}
	return out, nil
}

// ReverseResumption is one trial that resumed the reverse pass.
type ReverseResumption struct {
	Trial *strategy.Trial
	Flow  Flow
}

// ResumeReverse is ResumeForward's mirror for the reverse pass.
func (pl *Pipeline) ResumeReverse() ([]ReverseResumption, error) {
	var out []ReverseResumption
	for i, st := range pl.stages {
		res, ok := st.(Resumer)
		if !ok {
			continue
		}
		bucket := pl.parked[reverse][i]
		for _, id := range res.Ready() {
			pk, ok := bucket[id]
			if !ok {
				continue
			}
			delete(bucket, id)
			if i == 0 {
				// Stage 0 is the last stage the reverse pass visits; there is
				// nothing earlier to resume into. Reverse treats a negative
				// "from" as "start a fresh pass at the end", so i-1 here
				// would restart the whole pass instead of meaning "done".
				out = append(out, ReverseResumption{Trial: pk.trial, Flow: Flow{Status: Accept}})
				continue
			}
			flow, err := pl.Reverse(pk.trial, i-1)
			if err != nil {
				return out, err
			}
			out = append(out, ReverseResumption{Trial: pk.trial, Flow: flow})
		}
	}
	return out, nil
}
