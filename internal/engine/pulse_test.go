package engine

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/large-farva/presence-engine/internal/signals"
)

func TestComputePulse(t *testing.T) {
	cases := []struct {
		name       string
		in         signals.RawSignals
		freq       float64
		brightness float64
		mode       PulseMode
	}{
		{"resting", signals.RawSignals{}, 1, 0.5, PulseSlow},
		{"busy", signals.RawSignals{User: signals.UserSignals{EditsInLastMinute: 7}}, 2, 0.5, PulseMedium},
		{"frantic", signals.RawSignals{User: signals.UserSignals{EditsInLastMinute: 12}}, 3, 0.5, PulseFast},
		{"dozing", signals.RawSignals{User: signals.UserSignals{IdleTime: 45 * time.Second}}, 0.5, 0.5, PulseSlow},
		{"asleep", signals.RawSignals{User: signals.UserSignals{IdleTime: 2 * time.Minute}}, 0.5, 0.5, PulseSubtle},
		{"generating", signals.RawSignals{AI: signals.AISignals{IsGenerating: true}}, 4, 1, PulseErratic},
		{"analyzing", signals.RawSignals{AI: signals.AISignals{IsAnalyzing: true}}, 1.5, 0.8, PulseSlow},
		{"afterglow", signals.RawSignals{AI: signals.AISignals{ResponseIntensity: 60}}, 1, 0.8, PulseSlow},
	}
	for _, tc := range cases {
		got := ComputePulse(tc.in)
		if !near(got.Frequency, tc.freq) || !near(got.Brightness, tc.brightness) || got.Mode != tc.mode {
			t.Fatalf("%s: expected freq=%v brightness=%v mode=%s, got %+v", tc.name, tc.freq, tc.brightness, tc.mode, got)
		}
	}
}

func TestPulseAmplitudeIsBounded(t *testing.T) {
	low := ComputePulse(signals.RawSignals{})
	if !near(low.Amplitude, 0.3) {
		t.Fatalf("expected resting amplitude 0.3, got %v", low.Amplitude)
	}
	high := ComputePulse(signals.RawSignals{
		User:    signals.UserSignals{EditsInLastMinute: 40},
		Session: signals.SessionSignals{ProjectComplexity: 100},
	})
	if !near(high.Amplitude, 1) {
		t.Fatalf("expected amplitude capped at 1, got %v", high.Amplitude)
	}
}

func TestOverlayFor(t *testing.T) {
	if got := OverlayFor(signals.AISignals{IsGenerating: true, IsAnalyzing: true}); got != OverlayGenerating {
		t.Fatalf("expected generating to win, got %s", got)
	}
	if got := OverlayFor(signals.AISignals{IsAnalyzing: true}); got != OverlayAnalyzing {
		t.Fatalf("expected analyzing, got %s", got)
	}
	if got := OverlayFor(signals.AISignals{}); got != OverlayIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	b := NewBus(nil)
	var order []int
	for i := 1; i <= 3; i++ {
		n := i
		b.Subscribe(EventStateChange, func(Event) { order = append(order, n) })
	}
	b.Subscribe(EventPulseUpdate, func(Event) { order = append(order, 99) })
	b.Publish(Event{Name: EventStateChange})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected [1 2 3], got %v", order)
	}
}

func TestBusLogsListenerPanic(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	b := NewBus(zap.New(core))
	delivered := false
	b.Subscribe(EventAIOverlay, func(Event) { panic("boom") })
	b.Subscribe(EventAIOverlay, func(Event) { delivered = true })

	b.Publish(Event{Name: EventAIOverlay})

	if !delivered {
		t.Fatal("expected the second listener to run")
	}
	entries := logs.FilterMessage("event listener panicked").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 panic log, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["panic"]; got != "boom" {
		t.Fatalf("expected panic value boom, got %v", got)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
