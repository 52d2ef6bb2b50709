package ctl

import (
	"fmt"
	"strings"

	"github.com/large-farva/presence-engine/internal/signals"
)

// Signal feeds one activity command into the daemon's collector.
func Signal(baseURL string, cmd signals.Command, jsonOutput bool) error {
	if cmd.Kind == "" {
		return fmt.Errorf("signal kind required")
	}
	return control(baseURL, "/api/signal", cmd, "APPLIED", jsonOutput)
}

// Force pins the glyph to state. A zero duration uses the daemon's
// default override window.
func Force(baseURL, state string, durationMs int, jsonOutput bool) error {
	if strings.TrimSpace(state) == "" {
		return fmt.Errorf("glyph state required")
	}
	body := map[string]any{"state": state}
	if durationMs > 0 {
		body["duration_ms"] = durationMs
	}
	return control(baseURL, "/api/force", body, "FORCED", jsonOutput)
}

// Reset restores the presence pipeline to its initial state.
func Reset(baseURL string, jsonOutput bool) error {
	return control(baseURL, "/api/reset", nil, "RESET", jsonOutput)
}

// Start resumes the evaluation loop.
func Start(baseURL string, jsonOutput bool) error {
	return control(baseURL, "/api/start", nil, "STARTED", jsonOutput)
}

// Stop halts the evaluation loop and freezes the glyph.
func Stop(baseURL string, jsonOutput bool) error {
	return control(baseURL, "/api/stop", nil, "STOPPED", jsonOutput)
}

func control(baseURL, path string, body any, label string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var result struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := postJSON(baseURL, path, body, &result); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(result)
	}

	if result.OK {
		fmt.Printf("\n  %s  %s\n\n", colorize(green, label), result.Message)
	} else {
		fmt.Printf("\n  %s  %s\n\n", colorize(red, "ERROR"), result.Error)
	}
	return nil
}
