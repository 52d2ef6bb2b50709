// Package config handles loading, defaulting, and validation of the presence
// daemon's TOML configuration file. Every section maps to a typed struct so
// the rest of the codebase gets strong typing without manual key lookups.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/large-farva/presence-engine/internal/engine"
)

// Config is the top-level configuration, mirroring the TOML sections.
type Config struct {
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Server  ServerConfig  `toml:"server"  json:"server"`
	Data    DataConfig    `toml:"data"    json:"data"`
	Timing  TimingConfig  `toml:"timing"  json:"timing"`
	Demo    DemoConfig    `toml:"demo"    json:"demo"`
}

type LoggingConfig struct {
	Level  string `toml:"level"  json:"level"`
	Format string `toml:"format" json:"format"`
}

type ServerConfig struct {
	Bind string `toml:"bind" json:"bind"`
}

// DataConfig holds runtime paths. Nothing is persisted; run_dir only holds
// the single-instance lock.
type DataConfig struct {
	RunDir string `toml:"run_dir" json:"run_dir"`
}

// TimingConfig mirrors engine.Timing in milliseconds.
type TimingConfig struct {
	EvaluationIntervalMs        int `toml:"evaluation_interval_ms"         json:"evaluation_interval_ms"`
	CollapseStabilityRequiredMs int `toml:"collapse_stability_required_ms" json:"collapse_stability_required_ms"`
	MinCollapseDurationMs       int `toml:"min_collapse_duration_ms"       json:"min_collapse_duration_ms"`
	WaveReturnDelayMs           int `toml:"wave_return_delay_ms"           json:"wave_return_delay_ms"`
	OverrideWindowMs            int `toml:"override_window_ms"             json:"override_window_ms"`
}

// Durations converts the millisecond fields for the engine.
func (t TimingConfig) Durations() engine.Timing {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return engine.Timing{
		EvaluationInterval:        ms(t.EvaluationIntervalMs),
		CollapseStabilityRequired: ms(t.CollapseStabilityRequiredMs),
		MinCollapseDuration:       ms(t.MinCollapseDurationMs),
		WaveReturnDelay:           ms(t.WaveReturnDelayMs),
		OverrideWindow:            ms(t.OverrideWindowMs),
	}
}

type DemoConfig struct {
	Enabled         bool `toml:"enabled"          json:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds" json:"interval_seconds"`
}

// Default returns a Config populated with sane defaults. Values here are
// used whenever the TOML file omits a field.
func Default() Config {
	def := engine.DefaultTiming()
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Bind: "127.0.0.1:8088",
		},
		Data: DataConfig{
			RunDir: "/run/presence",
		},
		Timing: TimingConfig{
			EvaluationIntervalMs:        int(def.EvaluationInterval / time.Millisecond),
			CollapseStabilityRequiredMs: int(def.CollapseStabilityRequired / time.Millisecond),
			MinCollapseDurationMs:       int(def.MinCollapseDuration / time.Millisecond),
			WaveReturnDelayMs:           int(def.WaveReturnDelay / time.Millisecond),
			OverrideWindowMs:            int(def.OverrideWindow / time.Millisecond),
		},
		Demo: DemoConfig{
			Enabled:         true,
			IntervalSeconds: 1,
		},
	}
}

// Load reads the TOML file at path, layers it on top of the defaults, and
// validates the result. An error is returned if the file can't be read,
// parsed, or if any constraint is violated.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		return errors.New("logging.format must be console or json")
	}
	if cfg.Data.RunDir == "" {
		return errors.New("data.run_dir must not be empty")
	}
	if cfg.Demo.IntervalSeconds < 0 {
		return errors.New("demo.interval_seconds must be >= 0")
	}
	t := cfg.Timing
	if t.EvaluationIntervalMs <= 0 {
		return errors.New("timing.evaluation_interval_ms must be > 0")
	}
	if t.CollapseStabilityRequiredMs < 0 || t.MinCollapseDurationMs < 0 ||
		t.WaveReturnDelayMs < 0 || t.OverrideWindowMs < 0 {
		return errors.New("timing values must be >= 0")
	}
	if t.CollapseStabilityRequiredMs > 0 && t.CollapseStabilityRequiredMs < t.EvaluationIntervalMs {
		return errors.New("timing.collapse_stability_required_ms must be >= timing.evaluation_interval_ms")
	}
	return nil
}
