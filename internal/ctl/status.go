package ctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/large-farva/presence-engine/internal/engine"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string        `json:"name"`
	Mode          string        `json:"mode"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	WSClients     int           `json:"ws_clients"`
	Engine        engine.Status `json:"engine"`
}

// Status fetches the daemon status and prints a formatted summary.
func Status(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	fmt.Print(formatStatus(baseURL, s))
	return nil
}

func formatStatus(baseURL string, s StatusResponse) string {
	var b strings.Builder
	e := s.Engine
	row := func(label, value string) {
		fmt.Fprintf(&b, "  %-14s %s\n", colorize(dim, label), value)
	}

	running := colorize(green, "running")
	if !e.Running {
		running = colorize(yellow, "stopped")
	}

	b.WriteString("\n")
	b.WriteString(header("  PRESENCE ENGINE STATUS") + "\n")
	b.WriteString(colorize(dim, "  "+strings.Repeat("─", 44)) + "\n")
	row("Daemon:", fmt.Sprintf("%s (%s)", s.Name, s.Mode))
	row("Engine:", running)
	row("Glyph:", colorize(stateColor(string(e.State)), string(e.State))+
		colorize(dim, "  from "+string(e.PreviousState)))
	if !e.LastChangeAt.IsZero() {
		row("Changed:", formatDuration(time.Since(e.LastChangeAt))+" ago")
	}
	if e.Pattern != nil {
		row("Pattern:", fmt.Sprintf("%s %s %d%%", e.Pattern.Type, progressBar(e.Pattern.Confidence, 10), e.Pattern.Confidence))
	} else {
		row("Pattern:", colorize(dim, "none"))
	}
	row("Pulse:", fmt.Sprintf("%s  %.1f Hz  amp %.2f  bright %.2f",
		e.Pulse.Mode, e.Pulse.Frequency, e.Pulse.Amplitude, e.Pulse.Brightness))
	row("AI overlay:", string(e.Overlay))
	if e.OverrideRemaining > 0 {
		row("Override:", colorize(yellow, formatDuration(e.OverrideRemaining)+" left"))
	}
	row("Uptime:", formatDuration(time.Duration(s.UptimeSeconds)*time.Second))
	row("Clients:", fmt.Sprintf("%d", s.WSClients))
	row("Host:", baseURL)
	b.WriteString("\n")
	return b.String()
}

// State prints just the glyph state line from GET /api/state.
func State(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s struct {
		State               string                 `json:"state"`
		PreviousState       string                 `json:"previous_state"`
		Running             bool                   `json:"running"`
		OverrideRemainingMs int64                  `json:"override_remaining_ms"`
		AIOverlay           string                 `json:"ai_overlay"`
		Pulse               engine.PulseParameters `json:"pulse"`
		LastChangeAt        string                 `json:"last_change_at,omitempty"`
	}
	if err := getJSON(baseURL, "/api/state", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	line := fmt.Sprintf("\n  %s  %s %s", colorize(stateColor(s.State), padRight(s.State, 13)),
		colorize(dim, "from"), s.PreviousState)
	if s.LastChangeAt != "" {
		line += colorize(dim, " at "+formatClock(s.LastChangeAt))
	}
	if s.OverrideRemainingMs > 0 {
		line += colorize(yellow, fmt.Sprintf("  override %s", formatDuration(time.Duration(s.OverrideRemainingMs)*time.Millisecond)))
	}
	if !s.Running {
		line += colorize(yellow, "  (stopped)")
	}
	fmt.Println(line)
	fmt.Printf("  %s  %s %.1f Hz  ai %s\n\n", colorize(dim, "pulse"), s.Pulse.Mode, s.Pulse.Frequency, s.AIOverlay)
	return nil
}
