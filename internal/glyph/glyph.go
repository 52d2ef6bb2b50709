// Package glyph holds the static tables shared by the interpreter and the
// presence engine: the glyph states, their priority ranks, the behavioural
// pattern names, and the pattern → state mapping that drives collapses.
package glyph

import (
	"fmt"
	"strings"
	"time"
)

// State is the ambient "mood" the presence engine currently outputs.
type State string

const (
	StateWave         State = "wave"
	StateScatter      State = "scatter"
	StateRipple       State = "ripple"
	StateSpiralHelix  State = "spiral-helix"
	StateInterference State = "interference"
	StateHoneycomb    State = "honeycomb"
	StateStillPool    State = "still-pool"
)

var states = []State{
	StateWave,
	StateStillPool,
	StateRipple,
	StateScatter,
	StateInterference,
	StateSpiralHelix,
	StateHoneycomb,
}

// statePriority ranks states by importance. A higher rank cannot be displaced
// by a lower one except through a return to wave.
var statePriority = map[State]int{
	StateWave:         0,
	StateStillPool:    1,
	StateRipple:       2,
	StateScatter:      3,
	StateInterference: 4,
	StateSpiralHelix:  5,
	StateHoneycomb:    6,
}

// States returns every glyph state in rank order, lowest first.
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// Rank returns the priority rank of s, or -1 for an unknown state.
func Rank(s State) int {
	if r, ok := statePriority[s]; ok {
		return r
	}
	return -1
}

// ParseState normalises a user-supplied state name.
func ParseState(raw string) (State, error) {
	s := State(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := statePriority[s]; !ok {
		return "", fmt.Errorf("unknown glyph state %q", raw)
	}
	return s, nil
}

// PatternType names a behavioural hypothesis scored every tick.
type PatternType string

const (
	PatternHighVelocityPlayback PatternType = "high-velocity-playback"
	PatternStillnessLongSession PatternType = "stillness-long-session"
	PatternExploringTools       PatternType = "exploring-tools"
	PatternSteadyRhythmic       PatternType = "steady-rhythmic"
	PatternCollaborationActive  PatternType = "collaboration-active"
	PatternMixedSignals         PatternType = "mixed-signals"
	PatternNoStrongPattern      PatternType = "no-strong-pattern"
)

// PatternTypes is the fixed scoring order used by the interpreter.
var PatternTypes = []PatternType{
	PatternHighVelocityPlayback,
	PatternStillnessLongSession,
	PatternExploringTools,
	PatternSteadyRhythmic,
	PatternCollaborationActive,
	PatternMixedSignals,
	PatternNoStrongPattern,
}

// ParsePattern normalises a user-supplied pattern name.
func ParsePattern(raw string) (PatternType, error) {
	p := PatternType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := mappingIndex[p]; !ok {
		return "", fmt.Errorf("unknown pattern %q", raw)
	}
	return p, nil
}

// Pattern is one scored hypothesis from a single evaluation.
type Pattern struct {
	Type       PatternType `json:"type"`
	Confidence int         `json:"confidence"`
	Signals    []string    `json:"signals"`
	At         time.Time   `json:"at"`
}

// Mapping binds a pattern to the state it collapses into.
type Mapping struct {
	Pattern            PatternType `json:"pattern"`
	Target             State       `json:"target"`
	Priority           int         `json:"priority"`
	RequiredConfidence int         `json:"required_confidence"`
}

var mappings = []Mapping{
	{Pattern: PatternCollaborationActive, Target: StateHoneycomb, Priority: 100, RequiredConfidence: 60},
	{Pattern: PatternHighVelocityPlayback, Target: StateSpiralHelix, Priority: 90, RequiredConfidence: 70},
	{Pattern: PatternExploringTools, Target: StateScatter, Priority: 70, RequiredConfidence: 60},
	{Pattern: PatternStillnessLongSession, Target: StateStillPool, Priority: 60, RequiredConfidence: 70},
	{Pattern: PatternSteadyRhythmic, Target: StateRipple, Priority: 50, RequiredConfidence: 65},
	{Pattern: PatternMixedSignals, Target: StateInterference, Priority: 40, RequiredConfidence: 60},
	{Pattern: PatternNoStrongPattern, Target: StateWave, Priority: 0, RequiredConfidence: 0},
}

var mappingIndex = func() map[PatternType]Mapping {
	idx := make(map[PatternType]Mapping, len(mappings))
	for _, m := range mappings {
		idx[m.Pattern] = m
	}
	return idx
}()

// Mappings returns a copy of the pattern → state table.
func Mappings() []Mapping {
	out := make([]Mapping, len(mappings))
	copy(out, mappings)
	return out
}

// MappingFor looks up the mapping of p.
func MappingFor(p PatternType) (Mapping, bool) {
	m, ok := mappingIndex[p]
	return m, ok
}
