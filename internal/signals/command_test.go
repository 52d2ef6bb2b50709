package signals_test

import (
	"errors"
	"testing"
	"time"

	"github.com/large-farva/presence-engine/internal/signals"
)

func TestApplyDispatchesToCollector(t *testing.T) {
	c, _ := newCollector()
	cmds := []signals.Command{
		{Kind: signals.KindNoteAdded, Repeat: 4},
		{Kind: signals.KindToolSwitch, Tool: "pencil"},
		{Kind: signals.KindPlaybackStarted},
		{Kind: signals.KindLoopCompleted, Repeat: 2},
		{Kind: signals.KindProjectStats, Tracks: 3, Notes: 50},
		{Kind: signals.KindModeChange, Mode: "mix"},
		{Kind: signals.KindAIGenerationCompleted, LatencyMs: 250, Intensity: 70},
		{Kind: signals.KindCollaborators, Count: 2},
		{Kind: signals.KindSharedPlayback, Active: true},
	}
	for _, cmd := range cmds {
		if err := c.Apply(cmd); err != nil {
			t.Fatalf("Apply(%s) returned error: %v", cmd.Kind, err)
		}
	}

	s := c.Signals()
	if s.User.NotesAdded != 4 || s.User.CurrentTool != "pencil" || !s.User.IsPlaying || s.User.LoopCount != 2 {
		t.Fatalf("unexpected user signals %+v", s.User)
	}
	if s.Session.ProjectComplexity != 34 || s.Session.CurrentMode != "mix" {
		t.Fatalf("unexpected session signals %+v", s.Session)
	}
	if s.AI.LastLatency != 250*time.Millisecond || s.AI.ResponseIntensity != 70 || s.AI.GenerationCount != 1 {
		t.Fatalf("unexpected ai signals %+v", s.AI)
	}
	if s.Collaboration.ActiveCollaborators != 2 || !s.Collaboration.SharedPlayback {
		t.Fatalf("unexpected collaboration signals %+v", s.Collaboration)
	}
}

func TestApplyRejectsBadCommands(t *testing.T) {
	c, _ := newCollector()
	bad := []signals.Command{
		{Kind: "sneeze"},
		{Kind: signals.KindToolSwitch},
		{Kind: signals.KindModeChange, Mode: "  "},
		{Kind: signals.KindProjectStats, Tracks: -1},
		{Kind: signals.KindCollaborators, Count: -2},
		{Kind: signals.KindNoteAdded, Repeat: signals.MaxRepeat + 1},
		{Kind: signals.KindAIAnalysisCompleted, LatencyMs: -1},
	}
	for _, cmd := range bad {
		if err := c.Apply(cmd); err == nil {
			t.Fatalf("expected %+v to be rejected", cmd)
		}
	}
	if err := c.Apply(signals.Command{Kind: "sneeze"}); !errors.Is(err, signals.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}

	s := c.Signals()
	if s.User.NotesAdded != 0 || s.User.CurrentTool != "select" {
		t.Fatalf("expected rejected commands to leave the collector untouched, got %+v", s.User)
	}
}
