package engine

import (
	"time"

	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/signals"
)

// Timing holds the five durations that shape the state machine. Zero fields
// fall back to DefaultTiming.
type Timing struct {
	EvaluationInterval        time.Duration `json:"evaluation_interval"`
	CollapseStabilityRequired time.Duration `json:"collapse_stability_required"`
	MinCollapseDuration       time.Duration `json:"min_collapse_duration"`
	WaveReturnDelay           time.Duration `json:"wave_return_delay"`
	OverrideWindow            time.Duration `json:"override_window"`
}

func DefaultTiming() Timing {
	return Timing{
		EvaluationInterval:        400 * time.Millisecond,
		CollapseStabilityRequired: 2500 * time.Millisecond,
		MinCollapseDuration:       4000 * time.Millisecond,
		WaveReturnDelay:           2000 * time.Millisecond,
		OverrideWindow:            1500 * time.Millisecond,
	}
}

func (t Timing) withDefaults() Timing {
	def := DefaultTiming()
	if t.EvaluationInterval <= 0 {
		t.EvaluationInterval = def.EvaluationInterval
	}
	if t.CollapseStabilityRequired <= 0 {
		t.CollapseStabilityRequired = def.CollapseStabilityRequired
	}
	if t.MinCollapseDuration <= 0 {
		t.MinCollapseDuration = def.MinCollapseDuration
	}
	if t.WaveReturnDelay <= 0 {
		t.WaveReturnDelay = def.WaveReturnDelay
	}
	if t.OverrideWindow <= 0 {
		t.OverrideWindow = def.OverrideWindow
	}
	return t
}

// SignalSource supplies snapshots. *signals.Collector satisfies it.
type SignalSource interface {
	Signals() signals.RawSignals
	Reset()
}

// PatternInterpreter scores snapshots. *interpret.Interpreter satisfies it.
type PatternInterpreter interface {
	Interpret(s signals.RawSignals) []glyph.Pattern
	Dominant(patterns []glyph.Pattern) (glyph.Pattern, bool)
	ClearHistory()
}

// HistoryEntry records one state change.
type HistoryEntry struct {
	ID      string            `json:"id"`
	State   glyph.State       `json:"state"`
	At      time.Time         `json:"at"`
	Reason  string            `json:"reason"`
	Pattern glyph.PatternType `json:"pattern,omitempty"`
}

// Status bundles the read-only queries for status endpoints.
type Status struct {
	Running           bool            `json:"running"`
	State             glyph.State     `json:"state"`
	PreviousState     glyph.State     `json:"previous_state"`
	LastChangeAt      time.Time       `json:"last_change_at,omitzero"`
	Pattern           *glyph.Pattern  `json:"pattern,omitempty"`
	Pulse             PulseParameters `json:"pulse"`
	Overlay           AIOverlay       `json:"ai_overlay"`
	OverrideRemaining time.Duration   `json:"override_remaining"`
	Timing            Timing          `json:"timing"`
}
