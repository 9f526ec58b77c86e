// Package harmony is the module's outer Go entry point: the in-process
// constructor a caller (an evaluator loop, a test harness, or a future
// transport adapter) uses to stand up a tuning session without touching
// the session package's internals directly. No cmd/ binary ships with this
// module -- a command-line driver is an example client, one of the
// explicit Non-goals, not part of the tuning core.
package harmony

import (
	"github.com/activeharmony/harmony-core/internal/pipeline"
	"github.com/activeharmony/harmony-core/internal/session"
	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/strategy"
	"github.com/activeharmony/harmony-core/pkg/config"
)

// NewSession wires cfg, sp, strat, and an ordered stage list into a running
// session.Session.
func NewSession(cfg *config.Store, sp *space.Space, strat strategy.Strategy, stages []pipeline.Stage, opts ...session.Option) (*session.Session, error) {
	pl := pipeline.New(stages, nil)
	return session.New(cfg, sp, strat, pl, opts...)
}
