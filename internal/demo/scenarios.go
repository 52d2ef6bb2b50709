package demo

import (
	"time"

	"github.com/large-farva/presence-engine/internal/signals"
)

func cmd(kind signals.Kind) signals.Command {
	return signals.Command{Kind: kind}
}

func every(d time.Duration, n int, c signals.Command) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{After: d, Command: c}
	}
	return steps
}

func script(parts ...[]Step) []Step {
	var out []Step
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// DefaultScenarios returns the built-in studio sessions.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "editing-burst",
			Description: "rapid note entry over a playing loop",
			Steps: script(
				[]Step{
					{Command: signals.Command{Kind: signals.KindProjectStats, Tracks: 4, Notes: 120}},
					{After: 200 * time.Millisecond, Command: cmd(signals.KindPlaybackStarted)},
				},
				every(400*time.Millisecond, 8, cmd(signals.KindNoteAdded)),
				every(500*time.Millisecond, 4, cmd(signals.KindNoteMoved)),
				every(time.Second, 5, cmd(signals.KindLoopCompleted)),
				[]Step{{After: time.Second, Command: cmd(signals.KindPlaybackStopped)}},
			),
		},
		{
			Name:        "tool-exploration",
			Description: "hopping between tools and views",
			Steps: []Step{
				{Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "pencil"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "eraser"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "velocity"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindModeChange, Mode: "arrange"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "slice"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "automation"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindModeChange, Mode: "mix"}},
				{After: 600 * time.Millisecond, Command: signals.Command{Kind: signals.KindToolSwitch, Tool: "select"}},
				{After: 3 * time.Second, Command: signals.Command{Kind: signals.KindModeChange, Mode: "compose"}},
			},
		},
		{
			Name:        "steady-groove",
			Description: "calm listening with the odd tweak",
			Steps: script(
				[]Step{{Command: cmd(signals.KindPlaybackStarted)}},
				every(time.Second, 3, cmd(signals.KindLoopCompleted)),
				[]Step{{After: 500 * time.Millisecond, Command: cmd(signals.KindNoteMoved)}},
				every(time.Second, 4, cmd(signals.KindLoopCompleted)),
				[]Step{{After: time.Second, Command: cmd(signals.KindPlaybackStopped)}},
			),
		},
		{
			Name:        "ai-assist",
			Description: "asking the assistant for a variation",
			Steps: []Step{
				{Command: cmd(signals.KindAIAnalysisStarted)},
				{After: 1500 * time.Millisecond, Command: signals.Command{Kind: signals.KindAIAnalysisCompleted, LatencyMs: 1500, Intensity: 40}},
				{After: 300 * time.Millisecond, Command: cmd(signals.KindAIGenerationStarted)},
				{After: 3 * time.Second, Command: signals.Command{Kind: signals.KindAIGenerationCompleted, LatencyMs: 3000, Intensity: 85}},
				{After: 500 * time.Millisecond, Command: cmd(signals.KindPlaybackStarted)},
				{After: 4 * time.Second, Command: cmd(signals.KindPlaybackStopped)},
			},
		},
		{
			Name:        "jam-session",
			Description: "two collaborators editing together",
			Steps: script(
				[]Step{
					{Command: signals.Command{Kind: signals.KindCollaborators, Count: 2}},
					{After: 300 * time.Millisecond, Command: signals.Command{Kind: signals.KindSharedPlayback, Active: true}},
				},
				every(800*time.Millisecond, 6, cmd(signals.KindSimultaneousEdit)),
				[]Step{
					{After: 2 * time.Second, Command: signals.Command{Kind: signals.KindSharedPlayback, Active: false}},
					{After: 300 * time.Millisecond, Command: signals.Command{Kind: signals.KindCollaborators, Count: 0}},
				},
			),
		},
	}
}
