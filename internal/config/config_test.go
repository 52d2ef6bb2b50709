package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/large-farva/presence-engine/internal/config"
	"github.com/large-farva/presence-engine/internal/engine"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presence.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultTimingMatchesEngine(t *testing.T) {
	got := config.Default().Timing.Durations()
	if got != engine.DefaultTiming() {
		t.Fatalf("expected %+v, got %+v", engine.DefaultTiming(), got)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"

[timing]
evaluation_interval_ms = 200
wave_return_delay_ms = 1000

[demo]
enabled = false
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging section %+v", cfg.Logging)
	}
	if cfg.Demo.Enabled {
		t.Fatalf("expected demo disabled")
	}
	d := cfg.Timing.Durations()
	if d.EvaluationInterval != 200*time.Millisecond || d.WaveReturnDelay != time.Second {
		t.Fatalf("unexpected timing %+v", d)
	}
	if d.MinCollapseDuration != 4*time.Second {
		t.Fatalf("expected untouched fields to keep defaults, got %+v", d)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"format":   "[logging]\nformat = \"xml\"\n",
		"interval": "[timing]\nevaluation_interval_ms = 0\n",
		"negative": "[timing]\noverride_window_ms = -5\n",
		"window":   "[timing]\nevaluation_interval_ms = 1000\ncollapse_stability_required_ms = 500\n",
		"run_dir":  "[data]\nrun_dir = \"\"\n",
		"demo":     "[demo]\ninterval_seconds = -1\n",
	}
	for name, body := range cases {
		if _, err := config.Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadReportsParseErrors(t *testing.T) {
	path := writeConfig(t, "[timing\n")
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected parse error naming the file, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
