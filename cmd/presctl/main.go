// Presctl is the command-line client for monitoring and controlling a
// running presenced instance. It connects over HTTP and WebSocket to query
// the glyph state, feed activity signals, and stream live events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/large-farva/presence-engine/internal/ctl"
	"github.com/large-farva/presence-engine/internal/signals"
)

func main() {
	var (
		host    = pflag.StringP("host", "H", "http://127.0.0.1:8088", "Presence daemon URL (e.g. http://192.168.8.1:8088)")
		jsonOut = pflag.Bool("json", false, "Output raw JSON instead of formatted text")
		filter  = pflag.StringSlice("filter", nil, "Event types to show in watch (e.g. --filter state-change,log)")
	)

	// Stop parsing global flags at the first non-flag argument (the command
	// name), so subcommand-specific flags like --duration are not rejected.
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if pflag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cmd := pflag.Arg(0)
	subArgs := pflag.Args()[1:]

	var err error
	switch cmd {
	// ── Query commands ────────────────────────────────────────────
	case "status":
		err = ctl.Status(*host, *jsonOut)

	case "state":
		err = ctl.State(*host, *jsonOut)

	case "health":
		err = ctl.Health(*host, *jsonOut)

	case "version":
		err = ctl.VersionInfo(*host, *jsonOut)

	case "config":
		err = ctl.Config(*host, *jsonOut)

	case "history":
		histFlags := pflag.NewFlagSet("history", pflag.ContinueOnError)
		count := histFlags.Int("count", 20, "Number of state changes shown (0 = all)")
		if err = histFlags.Parse(subArgs); err == nil {
			err = ctl.History(*host, *count, *jsonOut)
		}

	case "patterns":
		err = ctl.Patterns(*host, *jsonOut)

	case "signals":
		err = ctl.Signals(*host, *jsonOut)

	case "metrics":
		err = ctl.Metrics(*host, *jsonOut)

	case "schema":
		eventType := ""
		if len(subArgs) > 0 {
			eventType = subArgs[0]
		}
		err = ctl.Schema(*host, eventType, *jsonOut)

	// ── Control commands ──────────────────────────────────────────
	case "signal":
		var c signals.Command
		sigFlags := pflag.NewFlagSet("signal", pflag.ContinueOnError)
		sigFlags.IntVar(&c.Repeat, "repeat", 0, "Apply the signal N times")
		sigFlags.StringVar(&c.Tool, "tool", "", "Tool name (tool-switch)")
		sigFlags.StringVar(&c.Mode, "mode", "", "Mode name (mode-change)")
		sigFlags.IntVar(&c.Tracks, "tracks", 0, "Track count (project-stats)")
		sigFlags.IntVar(&c.Notes, "notes", 0, "Note count (project-stats)")
		sigFlags.IntVar(&c.Count, "count", 0, "Collaborator count (collaborators)")
		sigFlags.IntVar(&c.LatencyMs, "latency", 0, "Latency in ms (ai-*-completed)")
		sigFlags.IntVar(&c.Intensity, "intensity", 0, "Response intensity 0-100 (ai-generation-completed)")
		sigFlags.BoolVar(&c.Active, "active", false, "Shared playback on/off (shared-playback)")
		if err = sigFlags.Parse(subArgs); err == nil {
			if sigFlags.NArg() > 0 {
				c.Kind = signals.Kind(sigFlags.Arg(0))
			}
			err = ctl.Signal(*host, c, *jsonOut)
		}

	case "force":
		forceFlags := pflag.NewFlagSet("force", pflag.ContinueOnError)
		duration := forceFlags.Int("duration", 0, "Override window in ms (default: daemon setting)")
		if err = forceFlags.Parse(subArgs); err == nil {
			err = ctl.Force(*host, forceFlags.Arg(0), *duration, *jsonOut)
		}

	case "reset":
		err = ctl.Reset(*host, *jsonOut)

	case "start":
		err = ctl.Start(*host, *jsonOut)

	case "stop":
		err = ctl.Stop(*host, *jsonOut)

	// ── Live streaming ────────────────────────────────────────────
	case "watch":
		watchFlags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
		pulse := watchFlags.Bool("pulse", false, "Include per-tick pulse-update events")
		if err = watchFlags.Parse(subArgs); err == nil {
			err = ctl.Watch(*host, ctl.WatchOptions{
				Filter: *filter,
				JSON:   *jsonOut,
				Pulse:  *pulse,
			})
		}

	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	kinds := ""
	for i, k := range signals.Kinds {
		if i > 0 && i%5 == 0 {
			kinds += ",\n    "
		} else if i > 0 {
			kinds += ", "
		}
		kinds += string(k)
	}
	fmt.Print(`
  presctl — Presence Engine control CLI

  USAGE
    presctl [flags] <command> [command-flags]

  COMMANDS (query)
    status          Show the glyph state, pattern, pulse and engine status
    state           Show the current glyph state on one line
    health          Check daemon and component health
    version         Show CLI and daemon version information
    config          Show the daemon's running configuration
    history         Show recent glyph state changes
    patterns        Show the latest pattern scores and the state mapping
    signals         Show the collector's raw activity snapshot
    metrics         Show condensed collector and daemon counters
    schema [TYPE]   Show the event stream JSON schema

  COMMANDS (control)
    signal KIND     Feed an activity signal into the collector
    force STATE     Pin the glyph to a state for an override window
    reset           Restore the pipeline to its initial state
    start           Start the evaluation loop
    stop            Stop the evaluation loop and freeze the glyph

  COMMANDS (live)
    watch           Stream live events from the daemon (Ctrl-C to stop)

  GLOBAL FLAGS
    -H, --host URL      Daemon base URL (default: http://127.0.0.1:8088)
        --json          Output raw JSON instead of formatted text
        --filter TYPE   Event types to show in watch (comma-separated)

  COMMAND FLAGS
    history:
        --count N           Number of state changes shown (default: 20, 0 = all)

    signal:
        --repeat N          Apply the signal N times
        --tool NAME         Tool name (tool-switch)
        --mode NAME         Mode name (mode-change)
        --tracks N          Track count (project-stats)
        --notes N           Note count (project-stats)
        --count N           Collaborator count (collaborators)
        --latency MS        Latency (ai-generation-completed, ai-analysis-completed)
        --intensity N       Response intensity 0-100
        --active            Shared playback flag (shared-playback)

    force:
        --duration MS       Override window (default: daemon setting)

    watch:
        --pulse             Include per-tick pulse-update events

  SIGNAL KINDS
    ` + kinds + `

  EXAMPLES
    presctl status
    presctl --json status
    presctl --host http://192.168.8.1:8088 watch
    presctl history --count 5
    presctl patterns
    presctl signal note-added --repeat 8
    presctl signal tool-switch --tool brush
    presctl signal collaborators --count 2
    presctl force scatter --duration 3000
    presctl stop
    presctl watch --filter state-change,log

`)
}
