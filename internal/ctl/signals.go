package ctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/large-farva/presence-engine/internal/signals"
)

// Signals prints the collector's current raw snapshot.
func Signals(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var s signals.RawSignals
	if err := getJSON(baseURL, "/api/signals", &s); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(s)
	}

	fmt.Print(formatSignals(s))
	return nil
}

func formatSignals(s signals.RawSignals) string {
	var b strings.Builder
	section := func(name string) {
		fmt.Fprintf(&b, "\n  %s\n", colorize(bold, name))
	}
	field := func(key string, val any) {
		fmt.Fprintf(&b, "    %-26s %v\n", colorize(dim, key+":"), val)
	}

	b.WriteString("\n")
	b.WriteString(header("  RAW SIGNALS") + "\n")
	b.WriteString(colorize(dim, "  captured "+s.CapturedAt.Local().Format("15:04:05.000")) + "\n")

	u := s.User
	section("user")
	field("notes added/deleted/moved", fmt.Sprintf("%d / %d / %d", u.NotesAdded, u.NotesDeleted, u.NotesMoved))
	field("edits last minute", u.EditsInLastMinute)
	field("tool", u.CurrentTool)
	field("tool switches last minute", u.ToolSwitchesInLastMinute)
	field("tools used", strings.Join(u.ToolsUsed, ", "))
	field("playing", u.IsPlaying)
	field("playbacks / loops", fmt.Sprintf("%d / %d", u.PlaybackCount, u.LoopCount))
	field("undo / redo", fmt.Sprintf("%d / %d", u.UndoCount, u.RedoCount))
	field("idle", formatDuration(u.IdleTime))

	section("session")
	field("id", s.Session.ID)
	field("duration", formatDuration(s.Session.Duration))
	field("complexity", s.Session.ProjectComplexity)
	field("mode", s.Session.CurrentMode)
	field("mode transitions", s.Session.ModeTransitions)

	section("ai")
	field("mode", s.AI.Mode)
	field("generating / analyzing", fmt.Sprintf("%t / %t", s.AI.IsGenerating, s.AI.IsAnalyzing))
	field("generations", s.AI.GenerationCount)
	field("intensity", s.AI.ResponseIntensity)
	field("last latency", s.AI.LastLatency.Round(time.Millisecond))

	section("collaboration")
	field("collaborators", s.Collaboration.ActiveCollaborators)
	field("simultaneous edits", s.Collaboration.SimultaneousEdits)
	field("shared playback", s.Collaboration.SharedPlayback)

	b.WriteString("\n")
	return b.String()
}

// MetricsResponse mirrors GET /api/metrics.
type MetricsResponse struct {
	Collector     signals.MetricsSummary `json:"collector"`
	HistorySize   int                    `json:"history_size"`
	WSClients     int                    `json:"ws_clients"`
	WSDropped     int64                  `json:"ws_dropped"`
	UptimeSeconds int64                  `json:"uptime_seconds"`
}

// Metrics prints the condensed collector summary and daemon counters.
func Metrics(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var m MetricsResponse
	if err := getJSON(baseURL, "/api/metrics", &m); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(m)
	}

	c := m.Collector
	rows := [][]string{
		{"session", c.SessionID},
		{"session duration", formatDuration(c.SessionDuration)},
		{"idle", formatDuration(c.IdleTime)},
		{"total edits", fmt.Sprint(c.TotalEdits)},
		{"edits / min", fmt.Sprint(c.EditsPerMinute)},
		{"tool switches / min", fmt.Sprint(c.ToolSwitchesPerM)},
		{"distinct tools", fmt.Sprint(c.DistinctTools)},
		{"playing", fmt.Sprint(c.Playing)},
		{"loops", fmt.Sprint(c.Loops)},
		{"undo + redo", fmt.Sprint(c.UndoRedo)},
		{"ai mode", string(c.AIMode)},
		{"collaborators", fmt.Sprint(c.Collaborators)},
		{"edit log", fmt.Sprint(c.EditLogSize)},
		{"tool switch log", fmt.Sprint(c.ToolSwitchLogSize)},
		{"state history", fmt.Sprint(m.HistorySize)},
		{"ws clients", fmt.Sprint(m.WSClients)},
		{"ws dropped", fmt.Sprint(m.WSDropped)},
		{"uptime", formatDuration(time.Duration(m.UptimeSeconds) * time.Second)},
	}

	fmt.Println()
	fmt.Println(header("  METRICS"))
	fmt.Println()
	fmt.Println(indent(renderTable([]string{"METRIC", "VALUE"}, rows, []columnAlignment{alignLeft, alignRight})))
	fmt.Println()
	return nil
}
