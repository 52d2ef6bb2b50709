// Package engine runs the presence state machine. On every evaluation tick
// it pulls a snapshot from the signal source, interprets it, recomputes the
// pulse and AI overlay, and decides whether the glyph collapses into a new
// state. Collapses are debounced by a stability window, gated by a minimum
// dwell time and by state priority, and always unwind back to wave.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/clock"
	"github.com/large-farva/presence-engine/internal/glyph"
)

// HistorySize bounds the state history.
const HistorySize = 100

const (
	reasonManualOverride = "Manual override"
	reasonAutoReturn     = "Auto-return to wave"
	reasonReset          = "Reset"
)

// Options configures an Engine. Zero values pick the real clock, a no-op
// logger and DefaultTiming.
type Options struct {
	Clock  clock.Clock
	Logger *zap.Logger
	Timing Timing
}

// Engine is safe for concurrent use. All mutation happens under mu; events
// produced by a mutation are published after mu is released, so handlers may
// call the query methods.
type Engine struct {
	clock  clock.Clock
	log    *zap.Logger
	timing Timing
	source SignalSource
	interp PatternInterpreter
	bus    *Bus

	mu      sync.Mutex
	running bool
	// epoch fences callbacks from timers cancelled by Stop or Reset.
	epoch  uint64
	ticker clock.Timer

	reversion    clock.Timer
	reversionSeq uint64

	overrideTimer clock.Timer
	overrideSeq   uint64
	overrideUntil time.Time

	current      glyph.State
	previous     glyph.State
	lastChange   time.Time
	history      []HistoryEntry
	tracked      glyph.PatternType
	trackedSince time.Time
	dominant     *glyph.Pattern
	patterns     []glyph.Pattern
	pulse        PulseParameters
	overlay      AIOverlay
}

// New wires an engine to its signal source and interpreter. The engine is
// idle until Start is called.
func New(source SignalSource, interp PatternInterpreter, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named("engine")
	e := &Engine{
		clock:  opts.Clock,
		log:    logger,
		timing: opts.Timing.withDefaults(),
		source: source,
		interp: interp,
		bus:    NewBus(logger),
	}
	e.clearLocked()
	return e
}

func (e *Engine) clearLocked() {
	e.current = glyph.StateWave
	e.previous = glyph.StateWave
	e.lastChange = time.Time{}
	e.history = nil
	e.tracked = ""
	e.trackedSince = time.Time{}
	e.dominant = nil
	e.patterns = nil
	e.overrideUntil = time.Time{}
	e.pulse = restingPulse()
	e.overlay = OverlayIdle
}

func restingPulse() PulseParameters {
	return PulseParameters{Frequency: 1, Amplitude: 0.3, Brightness: 0.5, Mode: PulseSlow}
}

// Subscribe registers h for the named event and returns an unsubscribe func.
func (e *Engine) Subscribe(name EventName, h Handler) func() {
	return e.bus.Subscribe(name, h)
}

// Timing returns the effective timing configuration.
func (e *Engine) Timing() Timing {
	return e.timing
}

// Start begins periodic evaluation. Calling Start on a running engine is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.tracked = ""
	epoch := e.epoch
	e.ticker = e.clock.Every(e.timing.EvaluationInterval, func() { e.tick(epoch) })

	// Stop dropped the one-shot timers. A collapsed glyph gets a full
	// reversion cycle from now, and a live override its remaining window.
	if e.current != glyph.StateWave {
		e.scheduleReversionLocked()
	}
	if !e.overrideUntil.IsZero() {
		if left := e.overrideUntil.Sub(e.clock.Now()); left > 0 {
			e.armOverrideLocked(left)
		} else {
			e.expireOverrideLocked()
		}
	}
	e.log.Info("presence engine started", zap.Duration("interval", e.timing.EvaluationInterval))
}

// Stop cancels the evaluation timer and every pending one-shot timer. No tick
// or scheduled transition takes effect after Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	wasRunning := e.running
	e.stopLocked()
	if wasRunning {
		e.log.Info("presence engine stopped")
	}
}

func (e *Engine) stopLocked() {
	e.running = false
	e.epoch++
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	e.cancelReversionLocked()
	if e.overrideTimer != nil {
		e.overrideTimer.Stop()
		e.overrideTimer = nil
	}
}

// Running reports whether the evaluation loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Reset stops the engine, restores the initial state and clears the signal
// source and interpreter history.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopLocked()
	now := e.clock.Now()
	prev := e.current
	e.clearLocked()
	e.mu.Unlock()

	e.source.Reset()
	e.interp.ClearHistory()
	e.log.Info("presence engine reset", zap.String("from", string(prev)))

	if prev != glyph.StateWave {
		e.bus.Publish(Event{
			Name:    EventStateChange,
			At:      now,
			Payload: StateChange{State: glyph.StateWave, PreviousState: prev, Reason: reasonReset},
		})
	}
}

func (e *Engine) tick(epoch uint64) {
	e.mu.Lock()
	if !e.running || epoch != e.epoch {
		e.mu.Unlock()
		return
	}
	events := e.evaluateLocked(e.clock.Now())
	e.mu.Unlock()

	e.bus.Publish(events...)
}

func (e *Engine) evaluateLocked(now time.Time) []Event {
	snap := e.source.Signals()
	patterns := e.interp.Interpret(snap)
	e.patterns = patterns
	dom, ok := e.interp.Dominant(patterns)
	if ok {
		d := dom
		e.dominant = &d
	} else {
		e.dominant = nil
	}

	e.pulse = ComputePulse(snap)
	events := []Event{{Name: EventPulseUpdate, At: now, Payload: PulseUpdate{Parameters: e.pulse}}}
	if overlay := OverlayFor(snap.AI); overlay != e.overlay {
		e.overlay = overlay
		events = append(events, Event{Name: EventAIOverlay, At: now, Payload: AIOverlayChange{Overlay: overlay}})
	}

	if e.overrideActiveLocked(now) {
		return events
	}

	if !ok {
		e.tracked = ""
		return events
	}
	if dom.Type != e.tracked {
		e.tracked = dom.Type
		e.trackedSince = now
		return events
	}
	if now.Sub(e.trackedSince) < e.timing.CollapseStabilityRequired {
		return events
	}

	m, _ := glyph.MappingFor(dom.Type)
	target := m.Target
	if target == e.current {
		return events
	}
	if allowed, why := e.allowLocked(target, now); !allowed {
		e.log.Debug("transition rejected",
			zap.String("from", string(e.current)),
			zap.String("to", string(target)),
			zap.String("pattern", string(dom.Type)),
			zap.String("reason", why),
		)
		return events
	}

	reason := fmt.Sprintf("%s detected (%d%% confidence)", dom.Type, dom.Confidence)
	events = append(events, e.transitionLocked(target, reason, dom.Type, now))
	events = append(events, Event{
		Name:    EventPatternDetected,
		At:      now,
		Payload: PatternDetected{Pattern: dom.Type, Confidence: dom.Confidence},
	})
	return events
}

// allowLocked applies the dwell and priority gates. Wave is exempt from the
// dwell gate, and a resting wave can be displaced by anything.
func (e *Engine) allowLocked(target glyph.State, now time.Time) (bool, string) {
	if target != glyph.StateWave && !e.lastChange.IsZero() && now.Sub(e.lastChange) < e.timing.MinCollapseDuration {
		return false, "minimum collapse duration not reached"
	}
	if e.current != glyph.StateWave && glyph.Rank(target) < glyph.Rank(e.current) {
		return false, "target has lower priority"
	}
	return true, ""
}

func (e *Engine) transitionLocked(target glyph.State, reason string, pattern glyph.PatternType, now time.Time) Event {
	e.previous = e.current
	e.current = target
	e.lastChange = now

	e.history = append(e.history, HistoryEntry{
		ID:      uuid.NewString(),
		State:   target,
		At:      now,
		Reason:  reason,
		Pattern: pattern,
	})
	if over := len(e.history) - HistorySize; over > 0 {
		n := copy(e.history, e.history[over:])
		e.history = e.history[:n]
	}

	e.cancelReversionLocked()
	if target != glyph.StateWave && e.running {
		e.scheduleReversionLocked()
	}

	e.log.Info("glyph state changed",
		zap.String("from", string(e.previous)),
		zap.String("to", string(target)),
		zap.String("reason", reason),
	)
	return Event{
		Name:    EventStateChange,
		At:      now,
		Payload: StateChange{State: target, PreviousState: e.previous, Reason: reason},
	}
}

// scheduleReversionLocked arms the two-stage return to wave: the dwell period
// first, then the wave return delay.
func (e *Engine) scheduleReversionLocked() {
	e.reversionSeq++
	epoch, seq := e.epoch, e.reversionSeq
	e.reversion = e.clock.AfterFunc(e.timing.MinCollapseDuration, func() {
		e.armWaveReturn(epoch, seq)
	})
}

func (e *Engine) cancelReversionLocked() {
	e.reversionSeq++
	if e.reversion != nil {
		e.reversion.Stop()
		e.reversion = nil
	}
}

func (e *Engine) armWaveReturn(epoch, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch || seq != e.reversionSeq {
		return
	}
	e.reversion = e.clock.AfterFunc(e.timing.WaveReturnDelay, func() {
		e.transitionToWave(epoch, seq)
	})
}

// transitionToWave bypasses both gates.
func (e *Engine) transitionToWave(epoch, seq uint64) {
	e.mu.Lock()
	if epoch != e.epoch || seq != e.reversionSeq {
		e.mu.Unlock()
		return
	}
	e.reversion = nil
	if e.current == glyph.StateWave {
		e.mu.Unlock()
		return
	}
	ev := e.transitionLocked(glyph.StateWave, reasonAutoReturn, "", e.clock.Now())
	e.mu.Unlock()

	e.bus.Publish(ev)
}

// ForceState pins state immediately and suppresses pattern evaluation for d
// (the configured override window when d <= 0). A second call replaces the
// first override. On a stopped engine the state is frozen until Start; the
// override deadline still counts down from now.
func (e *Engine) ForceState(state glyph.State, d time.Duration) {
	if glyph.Rank(state) < 0 {
		e.log.Warn("ignoring override to unknown state", zap.String("state", string(state)))
		return
	}
	if d <= 0 {
		d = e.timing.OverrideWindow
	}

	e.mu.Lock()
	now := e.clock.Now()
	e.overrideUntil = now.Add(d)
	if e.running {
		e.armOverrideLocked(d)
	} else if e.overrideTimer != nil {
		e.overrideTimer.Stop()
		e.overrideTimer = nil
	}
	ev := e.transitionLocked(state, reasonManualOverride, "", now)
	e.mu.Unlock()

	e.log.Info("manual override", zap.String("state", string(state)), zap.Duration("window", d))
	e.bus.Publish(ev)
}

// armOverrideLocked replaces any pending override timer with one firing
// after d.
func (e *Engine) armOverrideLocked(d time.Duration) {
	if e.overrideTimer != nil {
		e.overrideTimer.Stop()
	}
	e.overrideSeq++
	epoch, seq := e.epoch, e.overrideSeq
	e.overrideTimer = e.clock.AfterFunc(d, func() { e.endOverride(epoch, seq) })
}

func (e *Engine) endOverride(epoch, seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch || seq != e.overrideSeq {
		return
	}
	e.expireOverrideLocked()
}

// overrideActiveLocked also retires an override whose deadline has passed,
// so expiry holds even when the timer was cancelled by Stop.
func (e *Engine) overrideActiveLocked(now time.Time) bool {
	if e.overrideUntil.IsZero() {
		return false
	}
	if now.Before(e.overrideUntil) {
		return true
	}
	e.expireOverrideLocked()
	return false
}

func (e *Engine) expireOverrideLocked() {
	if e.overrideUntil.IsZero() {
		return
	}
	e.overrideUntil = time.Time{}
	e.overrideTimer = nil
	// Patterns must re-stabilise before they can collapse the glyph again.
	e.tracked = ""
	e.log.Debug("manual override expired", zap.String("state", string(e.current)))
}

// OverrideRemaining reports how long the current override still suppresses
// evaluation, measured against the stored deadline.
func (e *Engine) OverrideRemaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overrideUntil.IsZero() {
		return 0
	}
	if left := e.overrideUntil.Sub(e.clock.Now()); left > 0 {
		return left
	}
	return 0
}

func (e *Engine) CurrentState() glyph.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) PreviousState() glyph.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previous
}

func (e *Engine) PulseParameters() PulseParameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pulse
}

func (e *Engine) AIOverlay() AIOverlay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.overlay
}

// CurrentPattern returns the dominant pattern of the latest tick.
func (e *Engine) CurrentPattern() (glyph.Pattern, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dominant == nil {
		return glyph.Pattern{}, false
	}
	return clonePattern(*e.dominant), true
}

// LastPatterns returns every pattern scored on the latest tick.
func (e *Engine) LastPatterns() []glyph.Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]glyph.Pattern, len(e.patterns))
	for i, p := range e.patterns {
		out[i] = clonePattern(p)
	}
	return out
}

// StateHistory returns up to count recent entries, oldest first. A
// non-positive count returns the whole retained history.
func (e *Engine) StateHistory(count int) []HistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := 0
	if count > 0 && count < len(e.history) {
		start = len(e.history) - count
	}
	out := make([]HistoryEntry, len(e.history)-start)
	copy(out, e.history[start:])
	return out
}

// Status collects the read-only queries in one consistent view.
func (e *Engine) Status() Status {
	e.mu.Lock()
	st := Status{
		Running:       e.running,
		State:         e.current,
		PreviousState: e.previous,
		LastChangeAt:  e.lastChange,
		Pulse:         e.pulse,
		Overlay:       e.overlay,
		Timing:        e.timing,
	}
	if e.dominant != nil {
		p := clonePattern(*e.dominant)
		st.Pattern = &p
	}
	e.mu.Unlock()
	st.OverrideRemaining = e.OverrideRemaining()
	return st
}

func clonePattern(p glyph.Pattern) glyph.Pattern {
	p.Signals = append([]string{}, p.Signals...)
	return p
}
