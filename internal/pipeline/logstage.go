package pipeline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/activeharmony/harmony-core/internal/space"
	"github.com/activeharmony/harmony-core/internal/strategy"
)

// LogStage is a worked example of the stage contract: it appends one line
// per analyzed trial to w and otherwise passes every trial through
// unchanged. It exists to exercise Analyzer end to end, not as a spec'd
// auxiliary stage -- a real point-logger's filtering and rotation policy is
// out of scope here.
type LogStage struct {
	w io.Writer
}

// NewLogStage builds a LogStage writing to w.
func NewLogStage(w io.Writer) *LogStage {
	return &LogStage{w: w}
}

// Name implements Stage.
func (l *LogStage) Name() string { return "log" }

// Analyze implements Analyzer. It always accepts; logging never rejects or
// parks a trial.
func (l *LogStage) Analyze(flow *Flow, trial *strategy.Trial) error {
	flow.Status = Accept
	line := formatTrialLine(trial)
	if _, err := io.WriteString(l.w, line+"\n"); err != nil {
		return fmt.Errorf("logstage: write: %w", err)
	}
	return nil
}

// formatTrialLine renders "Point #<id>: (v1,v2,…) => (o1,…) => <unified>",
// with every real number (term or objective) carrying its canonical hex
// form alongside the decimal one for loss-free round trip.
func formatTrialLine(trial *strategy.Trial) string {
	terms := make([]string, len(trial.Point.Terms))
	for i, t := range trial.Point.Terms {
		terms[i] = formatValue(t)
	}
	objs := make([]string, len(trial.Perf.Obj))
	for i, o := range trial.Perf.Obj {
		objs[i] = formatReal(o)
	}
	return fmt.Sprintf("Point #%d: (%s) => (%s) => %s",
		trial.Point.ID,
		strings.Join(terms, ", "),
		strings.Join(objs, ", "),
		formatReal(trial.Perf.Unify()),
	)
}

func formatValue(v space.Value) string {
	if v.Kind != space.KindReal {
		return v.String()
	}
	return formatReal(v.Real)
}

func formatReal(r float64) string {
	return fmt.Sprintf("%s (%s)", strconv.FormatFloat(r, 'g', -1, 64), strconv.FormatFloat(r, 'x', -1, 64))
}
