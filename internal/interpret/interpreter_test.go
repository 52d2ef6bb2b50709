package interpret_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/large-farva/presence-engine/internal/clock"
	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/interpret"
	"github.com/large-farva/presence-engine/internal/signals"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func confidenceOf(t *testing.T, ps []glyph.Pattern, pt glyph.PatternType) glyph.Pattern {
	t.Helper()
	for _, p := range ps {
		if p.Type == pt {
			return p
		}
	}
	t.Fatalf("pattern %s missing from %+v", pt, ps)
	return glyph.Pattern{}
}

func TestInterpretProducesOneOfEachPattern(t *testing.T) {
	ps := interpret.New().Interpret(signals.RawSignals{CapturedAt: base})
	if len(ps) != len(glyph.PatternTypes) {
		t.Fatalf("expected %d patterns, got %d", len(glyph.PatternTypes), len(ps))
	}
	for i, pt := range glyph.PatternTypes {
		if ps[i].Type != pt {
			t.Fatalf("expected %s at %d, got %s", pt, i, ps[i].Type)
		}
		if ps[i].Signals == nil {
			t.Fatalf("expected non-nil signal labels for %s", pt)
		}
		if !ps[i].At.Equal(base) {
			t.Fatalf("expected timestamp from snapshot, got %s", ps[i].At)
		}
	}
}

func TestEditingBurstWithPlaybackScoresHighVelocity(t *testing.T) {
	clk := clock.NewManual(base)
	c := signals.New(clk, nil)
	for i := 0; i < 6; i++ {
		c.OnNoteAdded()
		clk.Advance(time.Second)
	}
	c.OnPlaybackStarted()
	clk.Advance(2 * time.Second)

	in := interpret.New()
	ps := in.Interpret(c.Signals())
	hv := confidenceOf(t, ps, glyph.PatternHighVelocityPlayback)
	if hv.Confidence < 80 {
		t.Fatalf("expected high-velocity >= 80, got %+v", hv)
	}
	dom, ok := in.Dominant(ps)
	if !ok || dom.Type != glyph.PatternHighVelocityPlayback {
		t.Fatalf("expected high-velocity to dominate, got %+v ok=%v", dom, ok)
	}
	if got := in.TargetState(dom.Type); got != glyph.StateSpiralHelix {
		t.Fatalf("expected spiral-helix target, got %s", got)
	}
}

func TestRuleScores(t *testing.T) {
	cases := []struct {
		name    string
		pattern glyph.PatternType
		snap    signals.RawSignals
		want    int
	}{
		{
			name:    "velocity moderate edits only",
			pattern: glyph.PatternHighVelocityPlayback,
			snap:    signals.RawSignals{CapturedAt: base, User: signals.UserSignals{EditsInLastMinute: 3}},
			want:    20,
		},
		{
			name:    "velocity everything",
			pattern: glyph.PatternHighVelocityPlayback,
			snap: signals.RawSignals{CapturedAt: base, User: signals.UserSignals{
				EditsInLastMinute: 9, IsPlaying: true, LoopCount: 4, LastEditAt: base.Add(-9 * time.Second),
			}},
			want: 100,
		},
		{
			name:    "stillness long idle long session listening",
			pattern: glyph.PatternStillnessLongSession,
			snap: signals.RawSignals{
				CapturedAt: base,
				User:       signals.UserSignals{IdleTime: 31 * time.Second, IsPlaying: true},
				Session:    signals.SessionSignals{Duration: 6 * time.Minute, ProjectComplexity: 51},
			},
			want: 100,
		},
		{
			name:    "stillness short idle medium session",
			pattern: glyph.PatternStillnessLongSession,
			snap: signals.RawSignals{
				CapturedAt: base,
				User:       signals.UserSignals{IdleTime: 15 * time.Second},
				Session:    signals.SessionSignals{Duration: 2 * time.Minute},
			},
			want: 40,
		},
		{
			name:    "exploring",
			pattern: glyph.PatternExploringTools,
			snap: signals.RawSignals{
				CapturedAt: base,
				User:       signals.UserSignals{ToolSwitchesInLastMinute: 2, ToolsUsed: []string{"a", "b", "c"}},
				Session:    signals.SessionSignals{ModeTransitions: 5},
			},
			want: 65,
		},
		{
			name:    "steady",
			pattern: glyph.PatternSteadyRhythmic,
			snap: signals.RawSignals{CapturedAt: base, User: signals.UserSignals{
				IsPlaying: true, EditsInLastMinute: 2, LoopCount: 3, UndoCount: 1, RedoCount: 1,
			}},
			want: 100,
		},
		{
			name:    "collaboration crowd",
			pattern: glyph.PatternCollaborationActive,
			snap: signals.RawSignals{CapturedAt: base, Collaboration: signals.CollaborationSignal{
				ActiveCollaborators: 3, SimultaneousEdits: 1, SharedPlayback: true,
				LastCollaboratorActionAt: base.Add(-time.Second),
			}},
			want: 100,
		},
		{
			name:    "collaboration stale action",
			pattern: glyph.PatternCollaborationActive,
			snap: signals.RawSignals{CapturedAt: base, Collaboration: signals.CollaborationSignal{
				ActiveCollaborators: 1, LastCollaboratorActionAt: base.Add(-10 * time.Second),
			}},
			want: 60,
		},
		{
			name:    "mixed AI while idle and churn",
			pattern: glyph.PatternMixedSignals,
			snap: signals.RawSignals{
				CapturedAt: base,
				User:       signals.UserSignals{IdleTime: 4 * time.Second, UndoCount: 6, RedoCount: 6},
				AI:         signals.AISignals{IsAnalyzing: true},
			},
			want: 70,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := confidenceOf(t, interpret.Score(tc.snap), tc.pattern)
			if got.Confidence != tc.want {
				t.Fatalf("expected %d, got %+v", tc.want, got)
			}
		})
	}
}

func TestNoStrongPatternFloor(t *testing.T) {
	snaps := []signals.RawSignals{
		{CapturedAt: base},
		{CapturedAt: base, User: signals.UserSignals{IsPlaying: true, LoopCount: 3}},
		{CapturedAt: base, Collaboration: signals.CollaborationSignal{ActiveCollaborators: 4, SimultaneousEdits: 2, SharedPlayback: true, LastCollaboratorActionAt: base}},
		{CapturedAt: base, User: signals.UserSignals{EditsInLastMinute: 12, IsPlaying: true, LoopCount: 9, LastEditAt: base}},
	}
	for i, s := range snaps {
		ns := confidenceOf(t, interpret.Score(s), glyph.PatternNoStrongPattern)
		if ns.Confidence < 30 {
			t.Fatalf("snapshot %d: expected floor 30, got %d", i, ns.Confidence)
		}
	}
	empty := confidenceOf(t, interpret.Score(snaps[0]), glyph.PatternNoStrongPattern)
	// steady-rhythmic earns 50 on an empty snapshot.
	if empty.Confidence != 50 {
		t.Fatalf("expected 100-50 for the empty snapshot, got %d", empty.Confidence)
	}
}

func TestDominantIsDeterministic(t *testing.T) {
	snap := signals.RawSignals{
		CapturedAt: base,
		User:       signals.UserSignals{EditsInLastMinute: 6, IsPlaying: true, LastEditAt: base},
	}
	in := interpret.New()
	first, ok := in.Dominant(in.Interpret(snap))
	if !ok {
		t.Fatalf("expected a dominant pattern")
	}
	for i := 0; i < 10; i++ {
		got, ok := in.Dominant(in.Interpret(snap))
		if !ok || !reflect.DeepEqual(got, first) {
			t.Fatalf("expected %+v on every call, got %+v", first, got)
		}
	}
}

func TestDominantPrefersPriorityOverConfidence(t *testing.T) {
	ps := []glyph.Pattern{
		{Type: glyph.PatternHighVelocityPlayback, Confidence: 100},
		{Type: glyph.PatternCollaborationActive, Confidence: 60},
		{Type: glyph.PatternNoStrongPattern, Confidence: 30},
	}
	got, ok := interpret.Dominant(ps)
	if !ok || got.Type != glyph.PatternCollaborationActive {
		t.Fatalf("expected collaboration by priority, got %+v", got)
	}

	ps[1].Confidence = 59
	got, _ = interpret.Dominant(ps)
	if got.Type != glyph.PatternHighVelocityPlayback {
		t.Fatalf("expected fall-through below required confidence, got %+v", got)
	}
}

func TestDominantNoneWhenNothingQualifies(t *testing.T) {
	_, ok := interpret.Dominant([]glyph.Pattern{
		{Type: glyph.PatternHighVelocityPlayback, Confidence: 69},
		{Type: glyph.PatternMixedSignals, Confidence: 10},
	})
	if ok {
		t.Fatalf("expected no dominant pattern")
	}
	if _, ok := interpret.Dominant(nil); ok {
		t.Fatalf("expected no dominant pattern for empty input")
	}
}

func TestHistoryIsBoundedAndClearable(t *testing.T) {
	in := interpret.New()
	for i := 0; i < interpret.HistorySize+10; i++ {
		in.Interpret(signals.RawSignals{CapturedAt: base.Add(time.Duration(i) * time.Second)})
	}
	h := in.History(0)
	if len(h) != interpret.HistorySize {
		t.Fatalf("expected %d entries, got %d", interpret.HistorySize, len(h))
	}
	if !h[len(h)-1].At.Equal(base.Add(time.Duration(interpret.HistorySize+9) * time.Second)) {
		t.Fatalf("expected newest entry last, got %s", h[len(h)-1].At)
	}
	if got := in.History(3); len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}

	snap := signals.RawSignals{CapturedAt: base, User: signals.UserSignals{IsPlaying: true}}
	before := in.Interpret(snap)
	in.ClearHistory()
	if len(in.History(0)) != 0 {
		t.Fatalf("expected empty history after clear")
	}
	if after := in.Interpret(snap); !reflect.DeepEqual(before, after) {
		t.Fatalf("expected clearing history not to affect scoring")
	}
}
