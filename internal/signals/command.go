package signals

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names an input event accepted by Apply.
type Kind string

const (
	KindInteraction           Kind = "interaction"
	KindNoteAdded             Kind = "note-added"
	KindNoteDeleted           Kind = "note-deleted"
	KindNoteMoved             Kind = "note-moved"
	KindToolSwitch            Kind = "tool-switch"
	KindPlaybackStarted       Kind = "playback-started"
	KindPlaybackStopped       Kind = "playback-stopped"
	KindLoopCompleted         Kind = "loop-completed"
	KindUndo                  Kind = "undo"
	KindRedo                  Kind = "redo"
	KindProjectStats          Kind = "project-stats"
	KindModeChange            Kind = "mode-change"
	KindAIGenerationStarted   Kind = "ai-generation-started"
	KindAIGenerationCompleted Kind = "ai-generation-completed"
	KindAIAnalysisStarted     Kind = "ai-analysis-started"
	KindAIAnalysisCompleted   Kind = "ai-analysis-completed"
	KindAIError               Kind = "ai-error"
	KindCollaborators         Kind = "collaborators"
	KindSimultaneousEdit      Kind = "simultaneous-edit"
	KindSharedPlayback        Kind = "shared-playback"
)

// Kinds lists every accepted kind.
var Kinds = []Kind{
	KindInteraction, KindNoteAdded, KindNoteDeleted, KindNoteMoved,
	KindToolSwitch, KindPlaybackStarted, KindPlaybackStopped, KindLoopCompleted,
	KindUndo, KindRedo, KindProjectStats, KindModeChange,
	KindAIGenerationStarted, KindAIGenerationCompleted, KindAIAnalysisStarted,
	KindAIAnalysisCompleted, KindAIError,
	KindCollaborators, KindSimultaneousEdit, KindSharedPlayback,
}

// MaxRepeat bounds Command.Repeat.
const MaxRepeat = MaxLogEntries

// ErrUnknownKind is returned by Apply for an unrecognised kind.
var ErrUnknownKind = errors.New("unknown signal kind")

// Command is the wire form of a single collector input. Only the fields the
// kind needs are read.
type Command struct {
	Kind      Kind   `json:"kind"`
	Repeat    int    `json:"repeat,omitempty"`
	Tool      string `json:"tool,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Tracks    int    `json:"tracks,omitempty"`
	Notes     int    `json:"notes,omitempty"`
	Count     int    `json:"count,omitempty"`
	LatencyMs int    `json:"latency_ms,omitempty"`
	Intensity int    `json:"intensity,omitempty"`
	Active    bool   `json:"active,omitempty"`
}

// Validate checks cmd without touching any collector.
func (cmd Command) Validate() error {
	if cmd.Repeat < 0 || cmd.Repeat > MaxRepeat {
		return fmt.Errorf("repeat must be between 0 and %d", MaxRepeat)
	}
	switch cmd.Kind {
	case KindToolSwitch:
		if strings.TrimSpace(cmd.Tool) == "" {
			return errors.New("tool-switch requires tool")
		}
	case KindModeChange:
		if strings.TrimSpace(cmd.Mode) == "" {
			return errors.New("mode-change requires mode")
		}
	case KindProjectStats:
		if cmd.Tracks < 0 || cmd.Notes < 0 {
			return errors.New("tracks and notes must be >= 0")
		}
	case KindCollaborators:
		if cmd.Count < 0 {
			return errors.New("count must be >= 0")
		}
	case KindAIGenerationCompleted, KindAIAnalysisCompleted:
		if cmd.LatencyMs < 0 {
			return errors.New("latency_ms must be >= 0")
		}
	}
	for _, k := range Kinds {
		if k == cmd.Kind {
			return nil
		}
	}
	return fmt.Errorf("%w %q", ErrUnknownKind, cmd.Kind)
}

// Apply validates cmd and feeds it to the collector Repeat times (once when
// Repeat is zero).
func (c *Collector) Apply(cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	n := cmd.Repeat
	if n == 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		c.apply(cmd)
	}
	return nil
}

func (c *Collector) apply(cmd Command) {
	latency := time.Duration(cmd.LatencyMs) * time.Millisecond
	switch cmd.Kind {
	case KindInteraction:
		c.OnInteraction()
	case KindNoteAdded:
		c.OnNoteAdded()
	case KindNoteDeleted:
		c.OnNoteDeleted()
	case KindNoteMoved:
		c.OnNoteMoved()
	case KindToolSwitch:
		c.OnToolSwitch(strings.TrimSpace(cmd.Tool))
	case KindPlaybackStarted:
		c.OnPlaybackStarted()
	case KindPlaybackStopped:
		c.OnPlaybackStopped()
	case KindLoopCompleted:
		c.OnLoopCompleted()
	case KindUndo:
		c.OnUndo()
	case KindRedo:
		c.OnRedo()
	case KindProjectStats:
		c.OnProjectStats(cmd.Tracks, cmd.Notes)
	case KindModeChange:
		c.OnModeChange(strings.TrimSpace(cmd.Mode))
	case KindAIGenerationStarted:
		c.OnAIGenerationStarted()
	case KindAIGenerationCompleted:
		c.OnAIGenerationCompleted(latency, cmd.Intensity)
	case KindAIAnalysisStarted:
		c.OnAIAnalysisStarted()
	case KindAIAnalysisCompleted:
		c.OnAIAnalysisCompleted(latency, cmd.Intensity)
	case KindAIError:
		c.OnAIError()
	case KindCollaborators:
		c.OnCollaboratorCount(cmd.Count)
	case KindSimultaneousEdit:
		c.OnSimultaneousEdit()
	case KindSharedPlayback:
		c.OnSharedPlayback(cmd.Active)
	}
}
