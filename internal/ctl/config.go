package ctl

import (
	"fmt"
	"strings"

	"github.com/large-farva/presence-engine/internal/config"
)

// Config fetches and displays the daemon's running configuration.
func Config(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var cfg config.Config
	if err := getJSON(baseURL, "/api/config", &cfg); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cfg)
	}

	fmt.Println()
	fmt.Println(header("  DAEMON CONFIGURATION"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))

	section := func(name string) {
		fmt.Printf("\n  %s\n", colorize(bold, "["+name+"]"))
	}
	field := func(key string, val any) {
		fmt.Printf("    %-32s %v\n", colorize(dim, key+":"), val)
	}

	section("logging")
	field("level", cfg.Logging.Level)
	field("format", cfg.Logging.Format)

	section("server")
	field("bind", cfg.Server.Bind)

	section("data")
	field("run_dir", cfg.Data.RunDir)

	section("timing")
	field("evaluation_interval_ms", cfg.Timing.EvaluationIntervalMs)
	field("collapse_stability_required_ms", cfg.Timing.CollapseStabilityRequiredMs)
	field("min_collapse_duration_ms", cfg.Timing.MinCollapseDurationMs)
	field("wave_return_delay_ms", cfg.Timing.WaveReturnDelayMs)
	field("override_window_ms", cfg.Timing.OverrideWindowMs)

	section("demo")
	field("enabled", cfg.Demo.Enabled)
	field("interval_seconds", cfg.Demo.IntervalSeconds)

	fmt.Println()

	return nil
}
