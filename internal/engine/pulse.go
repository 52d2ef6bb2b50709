package engine

import (
	"time"

	"github.com/large-farva/presence-engine/internal/signals"
)

// PulseMode classifies the glyph's pulse for renderers.
type PulseMode string

const (
	PulseErratic PulseMode = "erratic"
	PulseFast    PulseMode = "fast"
	PulseMedium  PulseMode = "medium"
	PulseSubtle  PulseMode = "subtle"
	PulseSlow    PulseMode = "slow"
)

// PulseParameters are recomputed from the snapshot on every tick.
type PulseParameters struct {
	Frequency  float64   `json:"frequency"`
	Amplitude  float64   `json:"amplitude"`
	Brightness float64   `json:"brightness"`
	Mode       PulseMode `json:"mode"`
}

// AIOverlay mirrors what the AI bridge is doing.
type AIOverlay string

const (
	OverlayGenerating AIOverlay = "generating"
	OverlayAnalyzing  AIOverlay = "analyzing"
	OverlayIdle       AIOverlay = "idle"
)

// ComputePulse derives pulse parameters from s.
func ComputePulse(s signals.RawSignals) PulseParameters {
	epm := s.User.EditsInLastMinute
	idle := s.User.IdleTime
	ai := s.AI

	freq := 1.0
	switch {
	case epm > 10:
		freq = 3
	case epm > 5:
		freq = 2
	}
	if idle > 30*time.Second {
		freq = 0.5
	}
	if ai.IsGenerating {
		freq = 4
	}
	if ai.IsAnalyzing {
		freq += 0.5
	}

	activity := float64(epm)/10 + float64(s.Session.ProjectComplexity)/200
	amplitude := 0.3 + 0.7*clamp01(activity)

	brightness := 0.5
	switch {
	case ai.IsGenerating:
		brightness = 1.0
	case ai.IsAnalyzing:
		brightness = 0.8
	case ai.ResponseIntensity > 0:
		brightness = 0.5 + float64(ai.ResponseIntensity)/200
	}

	var mode PulseMode
	switch {
	case ai.IsGenerating:
		mode = PulseErratic
	case freq > 2.5:
		mode = PulseFast
	case freq > 1.5:
		mode = PulseMedium
	case idle > 60*time.Second:
		mode = PulseSubtle
	default:
		mode = PulseSlow
	}

	return PulseParameters{
		Frequency:  freq,
		Amplitude:  amplitude,
		Brightness: brightness,
		Mode:       mode,
	}
}

// OverlayFor classifies the AI overlay.
func OverlayFor(ai signals.AISignals) AIOverlay {
	switch {
	case ai.IsGenerating:
		return OverlayGenerating
	case ai.IsAnalyzing:
		return OverlayAnalyzing
	default:
		return OverlayIdle
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
