// Package signals accumulates raw studio interaction events into rolling
// counters and hands out immutable snapshots. It does no interpretation: the
// collector only counts, timestamps and windows.
package signals

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/clock"
)

const (
	// MaxLogEntries caps the edit and tool-switch logs.
	MaxLogEntries = 1000
	// RateWindow is the trailing window used for per-minute counters.
	RateWindow = 60 * time.Second

	defaultTool = "select"
	defaultMode = "compose"
)

// Collector is safe for concurrent use. Every mutator is O(1) apart from the
// occasional log trim.
type Collector struct {
	clock clock.Clock
	log   *zap.Logger

	mu            sync.Mutex
	user          UserSignals
	session       SessionSignals
	ai            AISignals
	collab        CollaborationSignal
	playingSince  time.Time
	toolsUsed     map[string]struct{}
	editLog       []time.Time
	toolSwitchLog []time.Time
}

// New returns a collector whose session starts now. A nil clock means the
// real clock; a nil logger disables logging.
func New(clk clock.Clock, logger *zap.Logger) *Collector {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{clock: clk, log: logger.Named("signals")}
	c.resetLocked(clk.Now())
	return c
}

func (c *Collector) resetLocked(now time.Time) {
	c.user = UserSignals{
		CurrentTool:       defaultTool,
		LastInteractionAt: now,
	}
	c.session = SessionSignals{
		ID:          uuid.NewString(),
		StartedAt:   now,
		CurrentMode: defaultMode,
	}
	c.ai = AISignals{Mode: AIModeIdle}
	c.collab = CollaborationSignal{}
	c.playingSince = time.Time{}
	c.toolsUsed = make(map[string]struct{})
	c.editLog = nil
	c.toolSwitchLog = nil
}

// Reset restores construction defaults, starts a new session and clears both
// rolling logs.
func (c *Collector) Reset() {
	c.mu.Lock()
	old := c.session.ID
	c.resetLocked(c.clock.Now())
	id := c.session.ID
	c.mu.Unlock()
	c.log.Debug("collector reset", zap.String("previous_session", old), zap.String("session", id))
}

// OnInteraction resets the idle clock.
func (c *Collector) OnInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked(c.clock.Now())
}

func (c *Collector) touchLocked(now time.Time) {
	c.user.LastInteractionAt = now
}

func (c *Collector) OnNoteAdded() {
	c.recordEdit(func(u *UserSignals) { u.NotesAdded++ })
}

func (c *Collector) OnNoteDeleted() {
	c.recordEdit(func(u *UserSignals) { u.NotesDeleted++ })
}

func (c *Collector) OnNoteMoved() {
	c.recordEdit(func(u *UserSignals) { u.NotesMoved++ })
}

func (c *Collector) recordEdit(bump func(*UserSignals)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	bump(&c.user)
	c.user.LastEditAt = now
	c.editLog = appendCapped(c.editLog, now)
	c.touchLocked(now)
}

// OnToolSwitch records a switch to tool. Re-selecting the current tool only
// counts as an interaction.
func (c *Collector) OnToolSwitch(tool string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.touchLocked(now)
	if tool == "" || tool == c.user.CurrentTool {
		return
	}
	c.user.CurrentTool = tool
	c.toolsUsed[tool] = struct{}{}
	c.toolSwitchLog = appendCapped(c.toolSwitchLog, now)
}

func (c *Collector) OnPlaybackStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.touchLocked(now)
	if c.user.IsPlaying {
		return
	}
	c.user.IsPlaying = true
	c.user.PlaybackCount++
	c.playingSince = now
}

func (c *Collector) OnPlaybackStopped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.touchLocked(now)
	if !c.user.IsPlaying {
		return
	}
	c.user.IsPlaying = false
	c.user.PlaybackDuration += now.Sub(c.playingSince)
	c.playingSince = time.Time{}
}

// OnLoopCompleted counts a finished playback loop. Loops complete without
// user input, so the idle clock is left alone.
func (c *Collector) OnLoopCompleted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user.LoopCount++
}

func (c *Collector) OnUndo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	c.user.UndoCount++
	c.user.LastUndoAt = now
	c.touchLocked(now)
}

func (c *Collector) OnRedo() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user.RedoCount++
	c.touchLocked(c.clock.Now())
}

// OnProjectStats derives the 0–100 project complexity from track and note
// counts.
func (c *Collector) OnProjectStats(tracks, notes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ProjectComplexity = Complexity(tracks, notes)
}

// Complexity scores a project: eight points per track plus one per five
// notes, clamped to [0,100].
func Complexity(tracks, notes int) int {
	if tracks < 0 {
		tracks = 0
	}
	if notes < 0 {
		notes = 0
	}
	return clampInt(tracks*8+notes/5, 0, 100)
}

// OnModeChange switches the studio mode label, counting real transitions.
func (c *Collector) OnModeChange(mode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touchLocked(c.clock.Now())
	if mode == "" || mode == c.session.CurrentMode {
		return
	}
	c.session.CurrentMode = mode
	c.session.ModeTransitions++
}

func (c *Collector) OnAIGenerationStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ai.IsGenerating = true
	c.ai.Mode = AIModeGenerating
}

func (c *Collector) OnAIGenerationCompleted(latency time.Duration, intensity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ai.IsGenerating = false
	c.ai.LastGenerationAt = c.clock.Now()
	c.ai.GenerationCount++
	c.ai.LastLatency = latency
	c.ai.ResponseIntensity = clampInt(intensity, 0, 100)
	c.settleAIModeLocked()
}

func (c *Collector) OnAIAnalysisStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ai.IsAnalyzing = true
	if !c.ai.IsGenerating {
		c.ai.Mode = AIModeAnalyzing
	}
}

func (c *Collector) OnAIAnalysisCompleted(latency time.Duration, intensity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ai.IsAnalyzing = false
	c.ai.LastLatency = latency
	c.ai.ResponseIntensity = clampInt(intensity, 0, 100)
	c.settleAIModeLocked()
}

func (c *Collector) OnAIError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ai.IsGenerating = false
	c.ai.IsAnalyzing = false
	c.ai.Mode = AIModeError
}

func (c *Collector) settleAIModeLocked() {
	switch {
	case c.ai.IsGenerating:
		c.ai.Mode = AIModeGenerating
	case c.ai.IsAnalyzing:
		c.ai.Mode = AIModeAnalyzing
	default:
		c.ai.Mode = AIModeIdle
	}
}

func (c *Collector) OnCollaboratorCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 0 {
		n = 0
	}
	c.collab.ActiveCollaborators = n
	c.collab.LastCollaboratorActionAt = c.clock.Now()
}

func (c *Collector) OnSimultaneousEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collab.SimultaneousEdits++
	c.collab.LastCollaboratorActionAt = c.clock.Now()
}

func (c *Collector) OnSharedPlayback(active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.collab.SharedPlayback = active
	c.collab.LastCollaboratorActionAt = c.clock.Now()
}

// Signals returns a deep-copied snapshot with idle time, session duration
// and the per-minute counters recomputed for the current instant.
func (c *Collector) Signals() RawSignals {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()

	user := c.user
	user.IdleTime = nonNegative(now.Sub(c.user.LastInteractionAt))
	user.EditsInLastMinute = countSince(c.editLog, now)
	user.ToolSwitchesInLastMinute = countSince(c.toolSwitchLog, now)
	user.ToolsUsed = sortedKeys(c.toolsUsed)
	if user.IsPlaying {
		user.PlaybackDuration += nonNegative(now.Sub(c.playingSince))
	}

	session := c.session
	session.Duration = nonNegative(now.Sub(c.session.StartedAt))

	return RawSignals{
		CapturedAt:    now,
		User:          user,
		Session:       session,
		AI:            c.ai,
		Collaboration: c.collab,
	}
}

// MetricsSummary is a debug-only read view.
func (c *Collector) MetricsSummary() MetricsSummary {
	s := c.Signals()

	c.mu.Lock()
	editLog, switchLog := len(c.editLog), len(c.toolSwitchLog)
	c.mu.Unlock()

	return MetricsSummary{
		SessionID:         s.Session.ID,
		SessionDuration:   s.Session.Duration,
		IdleTime:          s.User.IdleTime,
		TotalEdits:        s.User.NotesAdded + s.User.NotesDeleted + s.User.NotesMoved,
		EditsPerMinute:    s.User.EditsInLastMinute,
		ToolSwitchesPerM:  s.User.ToolSwitchesInLastMinute,
		DistinctTools:     len(s.User.ToolsUsed),
		Playing:           s.User.IsPlaying,
		Loops:             s.User.LoopCount,
		UndoRedo:          s.User.UndoCount + s.User.RedoCount,
		AIMode:            s.AI.Mode,
		Collaborators:     s.Collaboration.ActiveCollaborators,
		EditLogSize:       editLog,
		ToolSwitchLogSize: switchLog,
	}
}

func appendCapped(log []time.Time, at time.Time) []time.Time {
	log = append(log, at)
	if over := len(log) - MaxLogEntries; over > 0 {
		n := copy(log, log[over:])
		log = log[:n]
	}
	return log
}

// countSince counts entries within the trailing RateWindow. Logs are append
// ordered, so the scan stops at the first entry inside the window.
func countSince(log []time.Time, now time.Time) int {
	for i, at := range log {
		if now.Sub(at) <= RateWindow {
			return len(log) - i
		}
	}
	return 0
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
