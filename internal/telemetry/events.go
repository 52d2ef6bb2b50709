// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between presenced and its clients, and publishes
// their JSON schemas so clients can validate the stream.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/large-farva/presence-engine/internal/engine"
)

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat       EventType = "heartbeat"
	EventStateChange     EventType = "state-change"
	EventPatternDetected EventType = "pattern-detected"
	EventPulseUpdate     EventType = "pulse-update"
	EventAIOverlay       EventType = "ai-overlay"
	EventLog             EventType = "log"
)

// EventTypes lists every event type in stream documentation order.
var EventTypes = []EventType{
	EventHeartbeat,
	EventStateChange,
	EventPatternDetected,
	EventPulseUpdate,
	EventAIOverlay,
	EventLog,
}

// Event is the base envelope shared by every event type.
type Event struct {
	Type EventType `json:"type" jsonschema:"required"`
	TS   string    `json:"ts"   jsonschema:"required"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching the
// timestamp format used across all events.
func NowTS() string {
	return TS(time.Now())
}

// TS formats t the way every event timestamp is formatted.
func TS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	State         string `json:"state"          jsonschema:"required"`
	Running       bool   `json:"running"        jsonschema:"required"`
	UptimeSeconds int64  `json:"uptime_seconds" jsonschema:"required"`
}

// StateChange is emitted whenever the glyph collapses, is forced, or returns
// to wave.
type StateChange struct {
	Event
	From   string `json:"from"   jsonschema:"required"`
	To     string `json:"to"     jsonschema:"required"`
	Reason string `json:"reason" jsonschema:"required"`
}

// PatternDetected follows the StateChange caused by a pattern.
type PatternDetected struct {
	Event
	Pattern    string `json:"pattern"    jsonschema:"required"`
	Confidence int    `json:"confidence" jsonschema:"required,minimum=0,maximum=100"`
}

// PulseUpdate carries the pulse recomputed on every evaluation tick.
type PulseUpdate struct {
	Event
	Frequency  float64 `json:"frequency"  jsonschema:"required"`
	Amplitude  float64 `json:"amplitude"  jsonschema:"required,minimum=0,maximum=1"`
	Brightness float64 `json:"brightness" jsonschema:"required,minimum=0,maximum=1"`
	Mode       string  `json:"mode"       jsonschema:"required,enum=erratic,enum=fast,enum=medium,enum=subtle,enum=slow"`
}

// AIOverlay is emitted when the AI overlay changes.
type AIOverlay struct {
	Event
	Overlay string `json:"overlay" jsonschema:"required,enum=generating,enum=analyzing,enum=idle"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"   jsonschema:"required"`
	Message string `json:"message" jsonschema:"required"`
}

// FromEngine converts an engine event into its wire envelope. ok is false
// for an unrecognised payload.
func FromEngine(ev engine.Event) (v any, ok bool) {
	ts := TS(ev.At)
	switch p := ev.Payload.(type) {
	case engine.StateChange:
		return StateChange{
			Event:  Event{Type: EventStateChange, TS: ts},
			From:   string(p.PreviousState),
			To:     string(p.State),
			Reason: p.Reason,
		}, true
	case engine.PatternDetected:
		return PatternDetected{
			Event:      Event{Type: EventPatternDetected, TS: ts},
			Pattern:    string(p.Pattern),
			Confidence: p.Confidence,
		}, true
	case engine.PulseUpdate:
		return PulseUpdate{
			Event:      Event{Type: EventPulseUpdate, TS: ts},
			Frequency:  p.Parameters.Frequency,
			Amplitude:  p.Parameters.Amplitude,
			Brightness: p.Parameters.Brightness,
			Mode:       string(p.Parameters.Mode),
		}, true
	case engine.AIOverlayChange:
		return AIOverlay{
			Event:   Event{Type: EventAIOverlay, TS: ts},
			Overlay: string(p.Overlay),
		}, true
	default:
		return nil, false
	}
}

var prototypes = map[EventType]any{
	EventHeartbeat:       Heartbeat{},
	EventStateChange:     StateChange{},
	EventPatternDetected: PatternDetected{},
	EventPulseUpdate:     PulseUpdate{},
	EventAIOverlay:       AIOverlay{},
	EventLog:             LogLine{},
}

// Schemas reflects a JSON schema for every event type.
func Schemas() map[EventType]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	out := make(map[EventType]*jsonschema.Schema, len(prototypes))
	for t, v := range prototypes {
		s := reflector.Reflect(v)
		s.Title = string(t)
		out[t] = s
	}
	return out
}

// SchemaDocument renders Schemas as plain JSON objects keyed by event type.
func SchemaDocument() (map[string]any, error) {
	doc := make(map[string]any, len(prototypes))
	for t, s := range Schemas() {
		m, err := schemaToMap(s)
		if err != nil {
			return nil, err
		}
		doc[string(t)] = m
	}
	return doc, nil
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
