// Package demo replays scripted studio sessions into the signal collector so
// the daemon, CLI, and any dashboard can watch the glyph move without a real
// editor attached. Each scenario is tuned to push one behavioural pattern
// over its threshold, and the gap between scenarios lets the user drift into
// stillness.
package demo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/signals"
	"github.com/large-farva/presence-engine/internal/telemetry"
)

// Applier accepts collector commands. *signals.Collector satisfies it.
type Applier interface {
	Apply(cmd signals.Command) error
}

// Broadcaster publishes JSON events. *ws.Hub satisfies it.
type Broadcaster interface {
	BroadcastJSON(v any)
}

// Step is one command, applied After the previous step.
type Step struct {
	After   time.Duration
	Command signals.Command
}

// Scenario is a named script of steps.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

// Duration is the total scripted time of the scenario.
func (s Scenario) Duration() time.Duration {
	var d time.Duration
	for _, st := range s.Steps {
		d += st.After
	}
	return d
}

// Runner cycles through Scenarios, pausing Interval between them.
type Runner struct {
	Collector Applier
	Hub       Broadcaster
	Log       *zap.Logger
	Interval  time.Duration
	Scenarios []Scenario

	index int // cycles through Scenarios
}

// New creates a demo runner with the built-in scenarios and a sensible
// default interval.
func New(collector Applier, hub Broadcaster, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Collector: collector,
		Hub:       hub,
		Log:       logger.Named("demo"),
		Interval:  20 * time.Second,
		Scenarios: DefaultScenarios(),
	}
}

// Run kicks off the demo loop. It starts the first scenario after a short
// pause, then keeps cycling until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if len(r.Scenarios) == 0 {
		return
	}
	r.logLine("info", "demo mode active, replaying scripted studio sessions")

	if !sleepOrCancel(ctx, 2*time.Second) {
		return
	}
	for {
		sc := r.nextScenario()
		if err := r.RunScenario(ctx, sc); err != nil {
			return
		}
		if !sleepOrCancel(ctx, r.Interval) {
			return
		}
	}
}

// RunScenario applies every step of sc in order. It returns ctx.Err() when
// cancelled mid-script. Commands the collector rejects are logged and
// skipped.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) error {
	r.logLine("info", fmt.Sprintf("scenario %s: %s (%s)", sc.Name, sc.Description, sc.Duration().Truncate(time.Second)))
	for _, st := range sc.Steps {
		if !sleepOrCancel(ctx, st.After) {
			return ctx.Err()
		}
		if err := r.Collector.Apply(st.Command); err != nil {
			r.Log.Warn("scenario step rejected",
				zap.String("scenario", sc.Name),
				zap.String("kind", string(st.Command.Kind)),
				zap.Error(err),
			)
		}
	}
	r.logLine("info", fmt.Sprintf("scenario %s complete, next in %s", sc.Name, r.Interval.Truncate(time.Second)))
	return nil
}

// nextScenario cycles through the catalog so each run features a different
// session.
func (r *Runner) nextScenario() Scenario {
	sc := r.Scenarios[r.index%len(r.Scenarios)]
	r.index++
	return sc
}

func (r *Runner) logLine(level, msg string) {
	r.Log.Info(msg)
	if r.Hub == nil {
		return
	}
	r.Hub.BroadcastJSON(telemetry.LogLine{
		Event:   telemetry.Event{Type: telemetry.EventLog, TS: telemetry.NowTS()},
		Level:   level,
		Message: msg,
	})
}

func sleepOrCancel(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
