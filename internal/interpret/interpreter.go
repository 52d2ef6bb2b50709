// Package interpret scores behavioural patterns from a signal snapshot and
// picks the dominant one. Scoring is a pure function of the snapshot; the
// interpreter only keeps a short history of past interpretations for
// debugging.
package interpret

import (
	"sort"
	"sync"
	"time"

	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/signals"
)

// HistorySize bounds the debug history.
const HistorySize = 50

// noStrongFloor keeps wave viable as a fallback every tick.
const noStrongFloor = 30

// Interpretation is one recorded call to Interpret.
type Interpretation struct {
	At       time.Time       `json:"at"`
	Patterns []glyph.Pattern `json:"patterns"`
}

// Interpreter is safe for concurrent use.
type Interpreter struct {
	mu      sync.Mutex
	history []Interpretation
}

func New() *Interpreter {
	return &Interpreter{}
}

// Interpret scores all seven patterns against s, in glyph.PatternTypes order.
func (in *Interpreter) Interpret(s signals.RawSignals) []glyph.Pattern {
	patterns := Score(s)

	in.mu.Lock()
	in.history = append(in.history, Interpretation{At: s.CapturedAt, Patterns: clonePatterns(patterns)})
	if over := len(in.history) - HistorySize; over > 0 {
		n := copy(in.history, in.history[over:])
		in.history = in.history[:n]
	}
	in.mu.Unlock()

	return patterns
}

// Score is the stateless half of Interpret.
func Score(s signals.RawSignals) []glyph.Pattern {
	at := s.CapturedAt
	velocity := scoreHighVelocity(s)
	stillness := scoreStillness(s)
	exploring := scoreExploring(s)
	steady := scoreSteady(s)
	collab := scoreCollaboration(s)

	others := []scored{velocity, stillness, exploring, steady, collab}
	mixed := scoreMixed(s, others)
	others = append(others, mixed)

	best := 0
	for _, o := range others {
		best = max(best, o.confidence)
	}
	noStrong := scored{confidence: max(100-best, noStrongFloor)}
	if best < 100-noStrongFloor {
		noStrong.signals = append(noStrong.signals, "no pattern above threshold")
	} else {
		noStrong.signals = append(noStrong.signals, "fallback floor")
	}

	return []glyph.Pattern{
		velocity.pattern(glyph.PatternHighVelocityPlayback, at),
		stillness.pattern(glyph.PatternStillnessLongSession, at),
		exploring.pattern(glyph.PatternExploringTools, at),
		steady.pattern(glyph.PatternSteadyRhythmic, at),
		collab.pattern(glyph.PatternCollaborationActive, at),
		mixed.pattern(glyph.PatternMixedSignals, at),
		noStrong.pattern(glyph.PatternNoStrongPattern, at),
	}
}

// Dominant orders patterns by mapping priority, then confidence, and returns
// the first that meets its required confidence.
func (in *Interpreter) Dominant(patterns []glyph.Pattern) (glyph.Pattern, bool) {
	return Dominant(patterns)
}

// Dominant is the package-level form of Interpreter.Dominant.
func Dominant(patterns []glyph.Pattern) (glyph.Pattern, bool) {
	type candidate struct {
		pattern glyph.Pattern
		mapping glyph.Mapping
	}
	candidates := make([]candidate, 0, len(patterns))
	for _, p := range patterns {
		m, ok := glyph.MappingFor(p.Type)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{pattern: p, mapping: m})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].mapping.Priority != candidates[j].mapping.Priority {
			return candidates[i].mapping.Priority > candidates[j].mapping.Priority
		}
		return candidates[i].pattern.Confidence > candidates[j].pattern.Confidence
	})
	for _, c := range candidates {
		if c.pattern.Confidence >= c.mapping.RequiredConfidence {
			return c.pattern, true
		}
	}
	return glyph.Pattern{}, false
}

// TargetState returns the glyph state p collapses into.
func (in *Interpreter) TargetState(p glyph.PatternType) glyph.State {
	if m, ok := glyph.MappingFor(p); ok {
		return m.Target
	}
	return glyph.StateWave
}

// Mappings exposes the static pattern table.
func (in *Interpreter) Mappings() []glyph.Mapping {
	return glyph.Mappings()
}

// History returns up to count recent interpretations, newest last. A
// non-positive count returns everything retained.
func (in *Interpreter) History(count int) []Interpretation {
	in.mu.Lock()
	defer in.mu.Unlock()
	start := 0
	if count > 0 && count < len(in.history) {
		start = len(in.history) - count
	}
	out := make([]Interpretation, 0, len(in.history)-start)
	for _, h := range in.history[start:] {
		out = append(out, Interpretation{At: h.At, Patterns: clonePatterns(h.Patterns)})
	}
	return out
}

// ClearHistory drops the debug log. Scoring is unaffected.
func (in *Interpreter) ClearHistory() {
	in.mu.Lock()
	in.history = nil
	in.mu.Unlock()
}

func clonePatterns(ps []glyph.Pattern) []glyph.Pattern {
	out := make([]glyph.Pattern, len(ps))
	for i, p := range ps {
		p.Signals = append([]string{}, p.Signals...)
		out[i] = p
	}
	return out
}
