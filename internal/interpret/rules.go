package interpret

import (
	"time"

	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/signals"
)

// scored accumulates points and the labels of the signals that earned them.
type scored struct {
	confidence int
	signals    []string
}

func (s *scored) add(points int, label string) {
	s.confidence += points
	s.signals = append(s.signals, label)
}

func (s scored) pattern(t glyph.PatternType, at time.Time) glyph.Pattern {
	labels := make([]string, len(s.signals))
	copy(labels, s.signals)
	return glyph.Pattern{
		Type:       t,
		Confidence: clampPercent(s.confidence),
		Signals:    labels,
		At:         at,
	}
}

func scoreHighVelocity(s signals.RawSignals) scored {
	var out scored
	u := s.User
	switch {
	case u.EditsInLastMinute >= 5:
		out.add(40, "high edit rate")
	case u.EditsInLastMinute >= 3:
		out.add(20, "moderate edit rate")
	}
	if u.IsPlaying {
		out.add(30, "playing")
	}
	if u.LoopCount > 3 {
		out.add(20, "looping")
	}
	if within(s.CapturedAt, u.LastEditAt, 10*time.Second) {
		out.add(10, "recent edit")
	}
	return out
}

func scoreStillness(s signals.RawSignals) scored {
	var out scored
	u := s.User
	switch {
	case u.IdleTime >= 30*time.Second:
		out.add(50, "long idle")
	case u.IdleTime >= 15*time.Second:
		out.add(25, "idle")
	}
	switch {
	case s.Session.Duration >= 5*time.Minute:
		out.add(30, "long session")
	case s.Session.Duration >= 2*time.Minute:
		out.add(15, "established session")
	}
	if u.IsPlaying && u.IdleTime > 5*time.Second {
		out.add(20, "listening while idle")
	}
	if s.Session.ProjectComplexity > 50 {
		out.add(10, "complex project")
	}
	return out
}

func scoreExploring(s signals.RawSignals) scored {
	var out scored
	u := s.User
	switch {
	case u.ToolSwitchesInLastMinute >= 3:
		out.add(50, "rapid tool switching")
	case u.ToolSwitchesInLastMinute >= 2:
		out.add(30, "tool switching")
	}
	switch {
	case len(u.ToolsUsed) >= 5:
		out.add(30, "many tools used")
	case len(u.ToolsUsed) >= 3:
		out.add(15, "several tools used")
	}
	if s.Session.ModeTransitions >= 5 {
		out.add(20, "frequent mode changes")
	}
	return out
}

func scoreSteady(s signals.RawSignals) scored {
	var out scored
	u := s.User
	if u.IsPlaying {
		out.add(25, "playing")
	}
	if u.EditsInLastMinute <= 3 {
		out.add(30, "calm edit rate")
	}
	if u.LoopCount >= 3 {
		out.add(25, "repeated loops")
	}
	if u.UndoCount+u.RedoCount < 3 {
		out.add(20, "few corrections")
	}
	return out
}

func scoreCollaboration(s signals.RawSignals) scored {
	var out scored
	c := s.Collaboration
	if c.ActiveCollaborators >= 1 {
		out.add(60, "collaborators present")
		if c.ActiveCollaborators >= 3 {
			out.add(20, "large session")
		}
	}
	if c.SimultaneousEdits > 0 {
		out.add(30, "simultaneous edits")
	}
	if c.SharedPlayback {
		out.add(10, "shared playback")
	}
	if within(s.CapturedAt, c.LastCollaboratorActionAt, 10*time.Second) {
		out.add(10, "recent collaborator action")
	}
	return out
}

// scoreMixed looks for contradictory evidence. others are the five
// behavioural patterns already scored this tick.
func scoreMixed(s signals.RawSignals, others []scored) scored {
	var out scored
	u := s.User
	nonZero := 0
	for _, o := range others {
		if o.confidence > 0 {
			nonZero++
		}
	}
	if nonZero >= 3 {
		out.add(30, "competing patterns")
	}
	if u.IdleTime < 5*time.Second && u.EditsInLastMinute == 0 {
		out.add(25, "active without editing")
	}
	if s.AI.Active() && u.IdleTime > 3*time.Second {
		out.add(25, "AI working while user idle")
	}
	if u.UndoCount > 5 && u.RedoCount > 5 {
		out.add(20, "undo/redo churn")
	}
	return out
}

// within reports whether at happened less than d before now. A zero at
// means the event never happened.
func within(now, at time.Time, d time.Duration) bool {
	if at.IsZero() {
		return false
	}
	return now.Sub(at) < d
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
