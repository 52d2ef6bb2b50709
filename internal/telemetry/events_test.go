package telemetry_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/large-farva/presence-engine/internal/engine"
	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/telemetry"
)

func TestFromEngineStateChange(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	v, ok := telemetry.FromEngine(engine.Event{
		Name: engine.EventStateChange,
		At:   at,
		Payload: engine.StateChange{
			State:         glyph.StateRipple,
			PreviousState: glyph.StateWave,
			Reason:        "steady-rhythmic detected (100% confidence)",
		},
	})
	if !ok {
		t.Fatalf("expected state change to convert")
	}

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["type"] != "state-change" || got["from"] != "wave" || got["to"] != "ripple" {
		t.Fatalf("unexpected envelope %v", got)
	}
	if got["ts"] != "2026-03-01T11:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %v", got["ts"])
	}
}

func TestFromEngineCoversEveryEngineEvent(t *testing.T) {
	payloads := map[engine.EventName]any{
		engine.EventStateChange:     engine.StateChange{},
		engine.EventPatternDetected: engine.PatternDetected{},
		engine.EventPulseUpdate:     engine.PulseUpdate{},
		engine.EventAIOverlay:       engine.AIOverlayChange{},
	}
	for _, name := range engine.EventNames {
		if _, ok := telemetry.FromEngine(engine.Event{Name: name, Payload: payloads[name]}); !ok {
			t.Fatalf("expected %s to convert", name)
		}
	}
	if _, ok := telemetry.FromEngine(engine.Event{Payload: 42}); ok {
		t.Fatalf("expected unknown payload to be rejected")
	}
}

func TestSchemaDocumentDescribesEveryEvent(t *testing.T) {
	doc, err := telemetry.SchemaDocument()
	if err != nil {
		t.Fatalf("SchemaDocument returned error: %v", err)
	}
	if len(doc) != len(telemetry.EventTypes) {
		t.Fatalf("expected %d schemas, got %d", len(telemetry.EventTypes), len(doc))
	}

	hb, ok := doc["heartbeat"].(map[string]any)
	if !ok {
		t.Fatalf("expected heartbeat schema, got %v", doc["heartbeat"])
	}
	props, ok := hb["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties in heartbeat schema, got %v", hb)
	}
	for _, field := range []string{"type", "ts", "state", "uptime_seconds"} {
		if _, ok := props[field]; !ok {
			t.Fatalf("expected %q in heartbeat properties, got %v", field, props)
		}
	}
	if hb["additionalProperties"] != false {
		t.Fatalf("expected closed schema, got %v", hb["additionalProperties"])
	}
}
