package ctl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/signals"
)

func TestMain(m *testing.M) {
	os.Setenv("NO_COLOR", "1")
	os.Exit(m.Run())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{750 * time.Millisecond, "750ms"},
		{45 * time.Second, "45s"},
		{3*time.Minute + 2*time.Second, "3m 2s"},
		{2*time.Hour + 14*time.Minute + 8*time.Second, "2h 14m 8s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("formatDuration(%s): expected %q, got %q", tt.d, tt.want, got)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 10); got != "=====     " {
		t.Fatalf("expected half bar, got %q", got)
	}
	if got := progressBar(-5, 4); got != "    " {
		t.Fatalf("expected empty bar, got %q", got)
	}
	if got := progressBar(150, 4); got != "====" {
		t.Fatalf("expected full bar, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"STATE", "REASON"},
		[][]string{{"ripple", "steady"}, {"wave"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	for _, want := range []string{"STATE", "REASON", "ripple", "steady", "wave"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"state change", `{"type":"state-change","ts":"2026-03-01T12:00:00Z","from":"wave","to":"ripple","reason":"steady-rhythmic detected (70% confidence)"}`,
			[]string{"STATE", "wave -> ripple", "steady-rhythmic detected"}},
		{"pattern", `{"type":"pattern-detected","ts":"2026-03-01T12:00:00Z","pattern":"exploring-tools","confidence":85}`,
			[]string{"pattern", "exploring-tools", " 85%"}},
		{"pulse", `{"type":"pulse-update","ts":"2026-03-01T12:00:00Z","frequency":1.8,"amplitude":0.6,"brightness":0.7,"mode":"medium"}`,
			[]string{"medium", "1.8 Hz", "amp 0.60", "bright 0.70"}},
		{"overlay", `{"type":"ai-overlay","ts":"2026-03-01T12:00:00Z","overlay":"generating"}`,
			[]string{"ai", "generating"}},
		{"heartbeat", `{"type":"heartbeat","ts":"2026-03-01T12:00:00Z","state":"wave","running":false,"uptime_seconds":65}`,
			[]string{"heartbeat", "wave", "stopped", "up 1m 5s"}},
		{"log", `{"type":"log","ts":"2026-03-01T12:00:00Z","level":"warn","message":"engine stopped"}`,
			[]string{"WARN", "engine stopped"}},
		{"unknown", `{"type":"mystery","value":1}`,
			[]string{`"type": "mystery"`}},
		{"not json", `garbage`, []string{"garbage"}},
	}
	for _, tt := range tests {
		got := formatEvent([]byte(tt.raw))
		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Fatalf("%s: expected %q in %q", tt.name, want, got)
			}
		}
	}
}

func TestWantEvent(t *testing.T) {
	pulse := []byte(`{"type":"pulse-update"}`)
	state := []byte(`{"type":"state-change"}`)

	if wantEvent(pulse, nil, false) {
		t.Fatal("expected pulse updates hidden by default")
	}
	if !wantEvent(pulse, nil, true) {
		t.Fatal("expected pulse updates shown with the pulse flag")
	}
	if !wantEvent(state, nil, false) {
		t.Fatal("expected state changes shown by default")
	}

	filter := map[string]bool{"pulse-update": true}
	if !wantEvent(pulse, filter, false) {
		t.Fatal("expected a filter naming pulse-update to show it")
	}
	if wantEvent(state, filter, false) {
		t.Fatal("expected the filter to hide state changes")
	}
}

func TestPatternTableMarksQualifyingScores(t *testing.T) {
	out := patternTable(PatternsResponse{
		Patterns: []glyph.Pattern{
			{Type: glyph.PatternSteadyRhythmic, Confidence: 70, Signals: []string{"loops"}},
		},
		Mappings: glyph.Mappings(),
	})
	for _, want := range []string{"steady-rhythmic", "ripple", " 70% *", "loops", "honeycomb"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
}

// recordingServer captures the last request body for a path.
func recordingServer(t *testing.T, path string, status int, reply any) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		got = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestForceSendsStateAndDuration(t *testing.T) {
	srv, got := recordingServer(t, "/api/force", http.StatusOK, map[string]any{"ok": true, "message": "forced"})

	if err := Force(srv.URL, "scatter", 3000, true); err != nil {
		t.Fatalf("force: %v", err)
	}
	if (*got)["state"] != "scatter" || (*got)["duration_ms"] != float64(3000) {
		t.Fatalf("unexpected body %v", *got)
	}

	if err := Force(srv.URL, "wave", 0, true); err != nil {
		t.Fatalf("force: %v", err)
	}
	if _, ok := (*got)["duration_ms"]; ok {
		t.Fatalf("expected duration_ms omitted, got %v", *got)
	}

	if err := Force(srv.URL, " ", 0, true); err == nil {
		t.Fatal("expected error for empty state")
	}
}

func TestSignalSendsCommand(t *testing.T) {
	srv, got := recordingServer(t, "/api/signal", http.StatusOK, map[string]any{"ok": true, "message": "applied tool-switch"})

	err := Signal(srv.URL, signals.Command{Kind: signals.KindToolSwitch, Tool: "brush", Repeat: 2}, true)
	if err != nil {
		t.Fatalf("signal: %v", err)
	}
	if (*got)["kind"] != "tool-switch" || (*got)["tool"] != "brush" || (*got)["repeat"] != float64(2) {
		t.Fatalf("unexpected body %v", *got)
	}
	if _, ok := (*got)["count"]; ok {
		t.Fatalf("expected zero fields omitted, got %v", *got)
	}

	if err := Signal(srv.URL, signals.Command{}, true); err == nil {
		t.Fatal("expected error for missing kind")
	}
}

func TestControlSurfacesDaemonError(t *testing.T) {
	srv, _ := recordingServer(t, "/api/force", http.StatusBadRequest, map[string]any{"ok": false, "error": `unknown glyph state "lava"`})

	err := Force(srv.URL, "lava", 0, false)
	if err == nil {
		t.Fatal("expected error from 400 response")
	}
	if !strings.Contains(err.Error(), `unknown glyph state "lava"`) {
		t.Fatalf("expected daemon message in error, got %v", err)
	}
}

func TestHistoryRequestsCount(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"history":[{"id":"a","state":"ripple","at":"2026-03-01T12:00:03Z","reason":"steady"}]}`))
	}))
	defer srv.Close()

	if err := History(srv.URL, 5, true); err != nil {
		t.Fatalf("history: %v", err)
	}
	if query != "count=5" {
		t.Fatalf("expected count=5, got %q", query)
	}
	if err := History(srv.URL, 0, false); err != nil {
		t.Fatalf("history: %v", err)
	}
	if query != "" {
		t.Fatalf("expected no query for full history, got %q", query)
	}
}
