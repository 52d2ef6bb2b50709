package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/glyph"
)

// EventName identifies an outbound engine event.
type EventName string

const (
	EventStateChange     EventName = "state-change"
	EventPatternDetected EventName = "pattern-detected"
	EventPulseUpdate     EventName = "pulse-update"
	EventAIOverlay       EventName = "ai-overlay"
)

// EventNames lists every event the engine emits.
var EventNames = []EventName{EventStateChange, EventPatternDetected, EventPulseUpdate, EventAIOverlay}

// Event is delivered to subscribers. Payload is one of StateChange,
// PatternDetected, PulseUpdate or AIOverlayChange, matching Name.
type Event struct {
	Name    EventName
	At      time.Time
	Payload any
}

type StateChange struct {
	State         glyph.State `json:"state"`
	PreviousState glyph.State `json:"previous_state"`
	Reason        string      `json:"reason"`
}

type PatternDetected struct {
	Pattern    glyph.PatternType `json:"pattern"`
	Confidence int               `json:"confidence"`
}

type PulseUpdate struct {
	Parameters PulseParameters `json:"parameters"`
}

type AIOverlayChange struct {
	Overlay AIOverlay `json:"overlay"`
}

// Handler receives events synchronously on the emitting goroutine.
type Handler func(Event)

// Bus is a typed in-process publish/subscribe hub. A panicking handler is
// logged and skipped; the remaining handlers still run.
type Bus struct {
	log *zap.Logger

	mu   sync.RWMutex
	next uint64
	subs map[EventName]map[uint64]Handler
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		log:  logger,
		subs: make(map[EventName]map[uint64]Handler),
	}
}

// Subscribe registers h for name and returns a func that removes it.
// Calling the returned func more than once is harmless.
func (b *Bus) Subscribe(name EventName, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	if b.subs[name] == nil {
		b.subs[name] = make(map[uint64]Handler)
	}
	b.subs[name][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}
}

// Publish delivers events in order, each to its subscribers in
// subscription order.
func (b *Bus) Publish(events ...Event) {
	for _, ev := range events {
		for _, h := range b.handlers(ev.Name) {
			b.deliver(h, ev)
		}
	}
}

func (b *Bus) handlers(name EventName) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subs[name]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Handler, len(ids))
	for i, id := range ids {
		out[i] = subs[id]
	}
	return out
}

func (b *Bus) deliver(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event listener panicked",
				zap.String("event", string(ev.Name)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	h(ev)
}
