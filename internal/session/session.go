// Package session implements the session core: the object that owns a
// parameter space, a configuration store, a search strategy, and a
// processing pipeline, and exposes the client-facing {JOIN, FETCH, REPORT,
// BEST, KILL} protocol described in spec §4.5/§6. The Go surface is a
// direct method-call API rather than a served RPC; framing it over a
// socket is the excluded transport layer.
package session

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/activeharmony/harmony-core/internal/harmonyerr"
	"github.com/activeharmony/harmony-core/internal/pipeline"
	"github.com/activeharmony/harmony-core/internal/point"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/strategy"
	"github.com/activeharmony/harmony-core/pkg/config"
	"github.com/activeharmony/harmony-core/pkg/logger"
	"github.com/activeharmony/harmony-core/pkg/utils"
)

// maxFetchAttempts bounds the REJECT/RETRY loop a single Fetch can drive
// the strategy and pipeline through before it is considered a strategy
// invariant violation -- a well-behaved strategy settles in a handful of
// rounds.
const maxFetchAttempts = 8

// Session owns the space, configuration, strategy, and pipeline for one
// tuning run, plus the set of outstanding trials keyed by point id. Every
// public method serializes on mu for the duration of the call, following
// the same "serialize the whole call" discipline the rest of this
// codebase's stateful cores use around their maps.
type Session struct {
	mu sync.Mutex

	cfg      *config.Store
	space    *space.Space
	strategy strategy.Strategy
	pipeline *pipeline.Pipeline

	log   *slog.Logger
	rng   *utils.RandSource
	clock func() time.Time

	outstanding map[uint64]point.Point
	ready       []point.Point
	fatal       error
}

// Option configures optional Session behavior at construction time,
// following the functional-options idiom used elsewhere in this codebase.
type Option func(*Session)

// WithLogger overrides the session's logger (default: the package logger).
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRandSource overrides the session's random source (default: seeded
// from the RANDOM_SEED config key, or the wall clock if unset/unparseable).
func WithRandSource(r *utils.RandSource) Option {
	return func(s *Session) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithClock overrides the session's time source, for deterministic tests.
func WithClock(c func() time.Time) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// New constructs a Session over cfg, sp, strat, and pl, initializing the
// strategy and every pipeline stage against sp. cfg may be nil (an empty
// store is used), and so may pl (an empty pipeline is used); sp and strat
// must not be nil.
func New(cfg *config.Store, sp *space.Space, strat strategy.Strategy, pl *pipeline.Pipeline, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if sp == nil {
		return nil, &harmonyerr.SpaceMismatchError{Reason: "session requires a non-nil space"}
	}
	if strat == nil {
		return nil, &harmonyerr.ConfigInvalidError{Key: "STRATEGY", Reason: "no strategy configured"}
	}
	if pl == nil {
		pl = pipeline.New(nil, nil)
	}

	s := &Session{
		cfg:         cfg,
		space:       sp,
		strategy:    strat,
		pipeline:    pl,
		log:         logger.Default,
		rng:         utils.NewRandSource(seedFromConfig(cfg)),
		clock:       time.Now,
		outstanding: make(map[uint64]point.Point),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := pl.Alloc(); err != nil {
		return nil, &harmonyerr.ResourceError{Op: "pipeline alloc", Err: err}
	}
	if err := strat.Init(sp); err != nil {
		return nil, &harmonyerr.StrategyInternalError{Strategy: "init", Reason: err.Error()}
	}
	if err := pl.Init(sp); err != nil {
		return nil, &harmonyerr.StageFaultError{Stage: "init", Err: err}
	}

	s.log.Info("session started", "dimensions", sp.Len())
	return s, nil
}

func seedFromConfig(cfg *config.Store) int64 {
	if v, ok := cfg.GetOK("RANDOM_SEED"); ok {
		if seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return seed
		}
	}
	return 0
}

// Join notifies every pipeline stage of a new client and mints an opaque
// client id for it.
func (s *Session) Join() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal != nil {
		return "", s.fatal
	}

	clientID := uuid.NewString()
	if err := s.pipeline.Join(clientID); err != nil {
		s.fatal = &harmonyerr.StageFaultError{Stage: "join", Err: err}
		return "", s.fatal
	}
	s.log.Info("client joined", "client_id", clientID)
	return clientID, nil
}

// FetchResult is the outcome of a Fetch call.
type FetchResult struct {
	// Point is the candidate to evaluate. Zero value when Busy is true.
	Point point.Point
	// Best is the current best point, set only when its id exceeds the
	// caller-supplied best_prev_id -- i.e. "here's a better point than the
	// one you already know about".
	Best point.Point
	// Busy reports that the strategy or pipeline has no candidate ready
	// right now; the client should retry.
	Busy bool
}

// Fetch generates the next candidate point: strategy.Generate, then the
// forward pipeline pass. A pipeline REJECT drives strategy.Rejected for a
// replacement, which re-enters the forward pass; a pipeline or strategy
// RETRY re-asks the strategy to generate. Either loop is bounded by
// maxFetchAttempts. Before generating anything new, Fetch first drains both
// Resume queues (per spec §9's design note): a trial some stage parked on an
// earlier call may have become ready in the meantime, and a delivered point
// is owed to the client who is still owed the answer to the WAIT it saw.
func (s *Session) Fetch(bestPrevID uint64) (FetchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal != nil {
		return FetchResult{}, s.fatal
	}

	if err := s.drainResume(); err != nil {
		return FetchResult{}, err
	}

	if len(s.ready) == 0 {
		pt, err := s.generate()
		if err != nil {
			return FetchResult{}, err
		}
		if pt.IsNone() {
			return FetchResult{Busy: true}, nil
		}
		if err := s.forwardFrom(pt); err != nil {
			return FetchResult{}, err
		}
	}

	if len(s.ready) == 0 {
		return FetchResult{Busy: true}, nil
	}
	out := s.ready[0]
	s.ready = s.ready[1:]
	s.log.Debug("trial fetched", "id", out.ID)
	return s.deliver(out, bestPrevID), nil
}

// forwardFrom drives pt through the forward pass from stage 0, resolving
// REJECT (via strategy.Rejected) and RETRY (via a fresh strategy.Generate)
// the same way a fresh Fetch call does, bounded by maxFetchAttempts. A
// WAIT re-parks the trial inside the pipeline and forwardFrom simply
// returns; an ACCEPT/RETURN queues the point onto s.ready for delivery.
func (s *Session) forwardFrom(pt point.Point) error {
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		out, flow, err := s.pipeline.Forward(pt.ID, pt, 0)
		if err != nil {
			s.fatal = &harmonyerr.StageFaultError{Stage: "forward", Err: err}
			return s.fatal
		}
		switch flow.Status {
		case pipeline.Wait:
			return nil
		case pipeline.Reject:
			replacement, err := s.strategy.Rejected(&flow, pt.ID)
			if err != nil {
				return s.strategyFault(err)
			}
			pt = replacement
			continue
		case pipeline.Retry:
			next, err := s.generate()
			if err != nil {
				return err
			}
			if next.IsNone() {
				return nil
			}
			pt = next
			continue
		default: // Accept, Return
			s.outstanding[out.ID] = out
			s.ready = append(s.ready, out)
			return nil
		}
	}
	fault := &harmonyerr.StrategyInternalError{Strategy: "session", Reason: "fetch did not settle within the retry budget"}
	s.fatal = fault
	return fault
}

// drainResume polls both pipeline Resume queues and settles whatever they
// report ready: resumed reverse trials feed the strategy exactly like a
// fresh Report would, and resumed forward trials either queue onto s.ready
// or re-enter forwardFrom, exactly like a fresh Fetch would.
func (s *Session) drainResume() error {
	if err := s.drainReverse(); err != nil {
		return err
	}
	return s.drainForward()
}

func (s *Session) drainForward() error {
	resumptions, err := s.pipeline.ResumeForward()
	if err != nil {
		s.fatal = &harmonyerr.StageFaultError{Stage: "forward", Err: err}
		return s.fatal
	}
	for _, r := range resumptions {
		if err := s.settleForward(r.ID, r.Point, r.Flow); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) settleForward(id uint64, pt point.Point, flow strategy.Flow) error {
	switch flow.Status {
	case pipeline.Wait:
		return nil // re-parked deeper in the pipeline; nothing to settle yet
	case pipeline.Reject:
		replacement, err := s.strategy.Rejected(&flow, id)
		if err != nil {
			return s.strategyFault(err)
		}
		return s.forwardFrom(replacement)
	case pipeline.Retry:
		next, err := s.generate()
		if err != nil {
			return err
		}
		if next.IsNone() {
			return nil
		}
		return s.forwardFrom(next)
	default: // Accept, Return
		s.outstanding[id] = pt
		s.ready = append(s.ready, pt)
		return nil
	}
}

func (s *Session) drainReverse() error {
	resumptions, err := s.pipeline.ResumeReverse()
	if err != nil {
		s.fatal = &harmonyerr.StageFaultError{Stage: "reverse", Err: err}
		return s.fatal
	}
	for _, r := range resumptions {
		if err := s.settleReverse(r.Trial, r.Flow); err != nil {
			return err
		}
	}
	return nil
}

// settleReverse applies the outcome of one reverse-pass pass (fresh or
// resumed) to the strategy and s.outstanding. Only WAIT leaves the trial
// outstanding; every other outcome is terminal for that trial.
func (s *Session) settleReverse(trial *strategy.Trial, flow strategy.Flow) error {
	id := trial.Point.ID
	switch flow.Status {
	case pipeline.Reject:
		delete(s.outstanding, id)
		if _, err := s.strategy.Rejected(&flow, id); err != nil {
			return s.strategyFault(err)
		}
		return nil
	case pipeline.Wait:
		s.outstanding[id] = trial.Point
		return nil
	case pipeline.Return:
		delete(s.outstanding, id)
		return nil
	default: // Accept
		delete(s.outstanding, id)
		if err := s.strategy.Analyze(trial); err != nil {
			return s.strategyFault(err)
		}
		s.log.Debug("trial analyzed", "id", id, "unified", trial.Perf.Unify())
		if s.strategy.Converged() {
			s.cfg.Set("CONVERGED", "1")
			s.log.Info("strategy converged", "best", s.strategy.Best().Format())
		}
		return nil
	}
}

func (s *Session) generate() (point.Point, error) {
	var flow strategy.Flow
	pt, err := s.strategy.Generate(&flow)
	if err != nil {
		return point.None(), s.strategyFault(err)
	}
	if flow.Status == strategy.Wait {
		return point.None(), nil
	}
	return pt, nil
}

func (s *Session) deliver(p point.Point, bestPrevID uint64) FetchResult {
	res := FetchResult{Point: p}
	if best := s.strategy.Best(); !best.IsNone() && best.ID > bestPrevID {
		res.Best = best
	}
	return res
}

// Report attaches an observed performance to an outstanding trial and runs
// the reverse pipeline pass. An unknown point id is a silent no-op, per
// spec §7 (UnknownId is not an error for REPORT). A reverse-pass REJECT
// invokes strategy.Rejected; the client never sees the replacement it
// produces -- the strategy consumes it internally. Report also drains both
// Resume queues afterward, same as Fetch, so a WAIT parked by an earlier
// call on either pass gets a chance to complete here too.
func (s *Session) Report(pointID uint64, perf point.Performance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal != nil {
		return s.fatal
	}

	pt, ok := s.outstanding[pointID]
	if !ok {
		s.log.Debug("rogue report ignored", "id", pointID)
		return nil
	}
	delete(s.outstanding, pointID)

	trial := &strategy.Trial{Point: pt, Perf: perf}
	flow, err := s.pipeline.Reverse(trial, -1)
	if err != nil {
		s.fatal = &harmonyerr.StageFaultError{Stage: "reverse", Err: err}
		return s.fatal
	}
	if err := s.settleReverse(trial, flow); err != nil {
		return err
	}

	return s.drainResume()
}

// Best returns the best point the strategy has observed so far.
func (s *Session) Best() point.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.Best()
}

// Kill drops an outstanding trial. Unlike Report, an unknown id is a
// reported failure, per spec §7.
func (s *Session) Kill(pointID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.outstanding[pointID]; !ok {
		return fmt.Errorf("session: kill: point #%d is not outstanding", pointID)
	}
	delete(s.outstanding, pointID)
	s.log.Debug("trial killed", "id", pointID)
	return nil
}

// Config returns the session's configuration store, for callers that need
// to inspect or extend it (e.g. a stage reading its own registered keys).
func (s *Session) Config() *config.Store { return s.cfg }

// Space returns the session's parameter space.
func (s *Session) Space() *space.Space { return s.space }

func (s *Session) strategyFault(err error) error {
	s.fatal = &harmonyerr.StrategyInternalError{Strategy: "session", Reason: err.Error()}
	return s.fatal
}
