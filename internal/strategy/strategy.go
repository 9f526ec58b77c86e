// Package strategy implements the search-strategy contract and its four
// concrete strategies: Exhaustive, Random, PRO (a Nelder-Mead simplex
// variant), and ANGEL (a lexicographic multi-objective extension of PRO).
package strategy

import (
	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
)

// FlowStatus is the control signal a strategy or pipeline stage attaches to
// a trial as it moves through generate/analyze.
type FlowStatus int

const (
	Accept FlowStatus = iota
	Reject
	Wait
	Return
	Retry
)

func (s FlowStatus) String() string {
	switch s {
	case Accept:
		return "ACCEPT"
	case Reject:
		return "REJECT"
	case Wait:
		return "WAIT"
	case Return:
		return "RETURN"
	case Retry:
		return "RETRY"
	default:
		return "UNKNOWN"
	}
}

// Flow is the control-flow record threaded through a generate or analyze
// call: a status plus an optional replacement hint a rejecting stage may
// supply.
type Flow struct {
	Status FlowStatus
	Hint   point.Point
}

// Trial is the (point, observed performance) pair fed back to a strategy's
// Analyze.
type Trial struct {
	Point point.Point
	Perf  point.Performance
}

// Strategy is the capability set every concrete search strategy implements.
// Re-Init on the same space must be idempotent; Init on a new space resets
// all internal state.
type Strategy interface {
	// Init (re-)initializes the strategy for sp. It must leave the
	// strategy in an unconverged state.
	Init(sp *space.Space) error

	// Generate fills flow and returns the next candidate point, or sets
	// flow.Status to Wait if the strategy has no candidate ready yet.
	Generate(flow *Flow) (point.Point, error)

	// Rejected is called when the pipeline or a client rejects the point
	// with id rejectedID. If flow.Hint is not None, the strategy must use
	// it as the replacement; otherwise it produces a new candidate by its
	// own method. The replacement keeps rejectedID.
	Rejected(flow *Flow, rejectedID uint64) (point.Point, error)

	// Analyze feeds back an observed performance, updates best-so-far,
	// and drives the strategy's internal state machine.
	Analyze(trial *Trial) error

	// Best returns the best point observed so far, or the "no point"
	// sentinel before any report has landed.
	Best() point.Point

	// Converged reports whether the strategy has reached a converged
	// state and will not usefully generate further candidates.
	Converged() bool
}
