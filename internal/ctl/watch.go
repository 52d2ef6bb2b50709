package ctl

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// WatchOptions controls the watch command behavior.
type WatchOptions struct {
	Filter []string // event types to show (empty = all)
	JSON   bool     // output raw JSON per event
	Pulse  bool     // include pulse-update events, which arrive every tick
}

// Watch connects to the daemon's WebSocket endpoint and streams events to
// the terminal in a human-readable format until interrupted.
func Watch(baseURL string, opts WatchOptions) error {
	baseURL = strings.TrimRight(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	u.Path = "/ws"
	u.RawQuery = ""

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if !opts.JSON {
		fmt.Println()
		fmt.Printf("  %s %s\n", colorize(green, "connected"), colorize(dim, u.String()))
		if len(opts.Filter) > 0 {
			fmt.Printf("  %s %s\n", colorize(dim, "filter:"), colorize(dim, strings.Join(opts.Filter, ", ")))
		}
		fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))
		fmt.Println()
	}

	// Build a filter set for O(1) lookup.
	filterSet := make(map[string]bool, len(opts.Filter))
	for _, f := range opts.Filter {
		filterSet[f] = true
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}

			if !wantEvent(msg, filterSet, opts.Pulse) {
				continue
			}

			if opts.JSON {
				fmt.Println(string(msg))
			} else {
				renderEvent(msg)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		if !opts.JSON {
			fmt.Println()
			fmt.Println(colorize(dim, "  disconnecting..."))
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(1*time.Second),
		)
		return nil
	case <-done:
		return nil
	}
}

// wantEvent applies the type filter. Pulse updates are hidden unless asked
// for, either with the pulse flag or by naming them in the filter.
func wantEvent(msg []byte, filterSet map[string]bool, pulse bool) bool {
	var ev struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		return true
	}
	if len(filterSet) > 0 {
		return filterSet[ev.Type]
	}
	return pulse || ev.Type != "pulse-update"
}

// renderEvent prints one stream event in a human-friendly format.
func renderEvent(raw []byte) {
	fmt.Println(formatEvent(raw))
}

// formatEvent renders a JSON event as a single terminal line. Unknown event
// types fall back to indented JSON.
func formatEvent(raw []byte) string {
	var ev map[string]any
	if err := json.Unmarshal(raw, &ev); err != nil {
		return "  " + string(raw)
	}

	evType, _ := ev["type"].(string)
	ts := colorize(dim, formatEventTime(ev))

	switch evType {
	case "heartbeat":
		state, _ := ev["state"].(string)
		running, _ := ev["running"].(bool)
		uptime, _ := ev["uptime_seconds"].(float64)
		engineState := "running"
		if !running {
			engineState = "stopped"
		}
		return fmt.Sprintf("  %s %s  %s  %s  up %s",
			ts,
			colorize(dim, "heartbeat"),
			colorize(stateColor(state), state),
			colorize(dim, engineState),
			colorize(dim, formatDuration(time.Duration(uptime)*time.Second)),
		)

	case "state-change":
		from, _ := ev["from"].(string)
		to, _ := ev["to"].(string)
		reason, _ := ev["reason"].(string)
		return fmt.Sprintf("  %s %s  %s %s %s  %s",
			ts,
			colorize(bold, "STATE"),
			colorize(stateColor(from), from),
			colorize(dim, "->"),
			colorize(stateColor(to), to),
			colorize(dim, reason),
		)

	case "pattern-detected":
		pattern, _ := ev["pattern"].(string)
		conf, _ := ev["confidence"].(float64)
		return fmt.Sprintf("  %s %s  %s [%s] %3.0f%%",
			ts,
			colorize(cyan, "pattern"),
			padRight(pattern, 24),
			progressBar(int(conf), 20),
			conf,
		)

	case "pulse-update":
		mode, _ := ev["mode"].(string)
		freq, _ := ev["frequency"].(float64)
		amp, _ := ev["amplitude"].(float64)
		bright, _ := ev["brightness"].(float64)
		return fmt.Sprintf("  %s %s  %s %.1f Hz  amp %.2f  bright %.2f",
			ts,
			colorize(dim, "pulse"),
			padRight(mode, 7),
			freq, amp, bright,
		)

	case "ai-overlay":
		overlay, _ := ev["overlay"].(string)
		color := dim
		if overlay != "idle" {
			color = magenta
		}
		return fmt.Sprintf("  %s %s  %s", ts, colorize(magenta, "ai"), colorize(color, overlay))

	case "log":
		level, _ := ev["level"].(string)
		message, _ := ev["message"].(string)
		return fmt.Sprintf("  %s %s  %s", ts, formatLogLevel(level), message)

	default:
		pretty, err := json.MarshalIndent(ev, "  ", "  ")
		if err != nil {
			return "  " + string(raw)
		}
		return "  " + string(pretty)
	}
}

// formatEventTime extracts and shortens the timestamp from an event.
func formatEventTime(ev map[string]any) string {
	tsRaw, ok := ev["ts"].(string)
	if !ok {
		return "            "
	}
	return formatClock(tsRaw)
}
