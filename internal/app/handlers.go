package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/glyph"
	"github.com/large-farva/presence-engine/internal/signals"
	"github.com/large-farva/presence-engine/internal/telemetry"
)

// maxBody bounds POST bodies.
const maxBody = 64 << 10

// ---------------------------------------------------------------------------
// Core handlers
// ---------------------------------------------------------------------------

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	// If the client asks for JSON, return component-level health checks.
	if r.Header.Get("Accept") == "application/json" {
		a.handleHealthDetailed(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleHealthDetailed(w http.ResponseWriter, _ *http.Request) {
	checks := map[string]any{}
	allOK := true

	running := a.engine.Running()
	checks["engine"] = map[string]any{"ok": running, "running": running}
	if !running {
		allOK = false
	}

	if a.lockHeld() {
		checks["lock"] = map[string]any{"ok": true, "path": a.lockPath}
	} else {
		checks["lock"] = map[string]any{"ok": false, "error": "daemon lock not held"}
		allOK = false
	}

	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); err != nil {
			checks["config_file"] = map[string]any{"ok": false, "error": err.Error()}
			allOK = false
		} else {
			checks["config_file"] = map[string]any{"ok": true, "path": a.configPath}
		}
	}

	checks["ws"] = map[string]any{"ok": true, "clients": a.wsHub.Clients(), "dropped": a.wsHub.Dropped()}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": allOK,
		"checks":  checks,
	})
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := a.engine.Status()
	mode := "live"
	if a.cfg.Demo.Enabled {
		mode = "demo"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":           "presence-engine",
		"mode":           mode,
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"ws_clients":     a.wsHub.Clients(),
		"engine":         st,
	})
}

func (a *App) handleState(w http.ResponseWriter, _ *http.Request) {
	st := a.engine.Status()
	resp := map[string]any{
		"state":                 st.State,
		"previous_state":        st.PreviousState,
		"running":               st.Running,
		"override_remaining_ms": st.OverrideRemaining.Milliseconds(),
		"ai_overlay":            st.Overlay,
		"pulse":                 st.Pulse,
	}
	if !st.LastChangeAt.IsZero() {
		resp["last_change_at"] = st.LastChangeAt.UTC().Format(time.RFC3339Nano)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	count, err := queryCount(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": a.engine.StateHistory(count)})
}

func (a *App) handlePattern(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"pattern": nil}
	if p, ok := a.engine.CurrentPattern(); ok {
		resp["pattern"] = p
		if m, ok := glyph.MappingFor(p.Type); ok {
			resp["target"] = m.Target
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handlePatterns(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"patterns": a.engine.LastPatterns(),
		"mappings": a.interp.Mappings(),
	}
	if r.URL.Query().Get("history") != "" {
		n, err := strconv.Atoi(r.URL.Query().Get("history"))
		if err != nil || n < 0 {
			jsonError(w, "history must be a non-negative integer", http.StatusBadRequest)
			return
		}
		resp["history"] = a.interp.History(n)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleSignals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.collector.Signals())
}

func (a *App) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"collector":      a.collector.MetricsSummary(),
		"history_size":   len(a.engine.StateHistory(0)),
		"ws_clients":     a.wsHub.Clients(),
		"ws_dropped":     a.wsHub.Dropped(),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
	})
}

func (a *App) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cfg)
}

func (a *App) handleSchema(w http.ResponseWriter, _ *http.Request) {
	doc, err := telemetry.SchemaDocument()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (a *App) handleVersion(w http.ResponseWriter, _ *http.Request) {
	goVersion := GoVersion
	if goVersion == "unknown" {
		goVersion = runtime.Version()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    Version,
		"go_version": goVersion,
		"built_at":   BuiltAt,
	})
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (a *App) handleSignal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var cmd signals.Command
	if err := decodeBody(r, &cmd); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.collector.Apply(cmd); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeCommandResult(w, commandResult{OK: true, Message: "applied " + string(cmd.Kind)})
}

func (a *App) handleForce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		State      string `json:"state"`
		DurationMs int    `json:"duration_ms"`
	}
	if err := decodeBody(r, &req); err != nil {
		jsonError(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	state, err := glyph.ParseState(req.State)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.DurationMs < 0 {
		jsonError(w, "duration_ms must be >= 0", http.StatusBadRequest)
		return
	}

	a.engine.ForceState(state, time.Duration(req.DurationMs)*time.Millisecond)
	remaining := a.engine.OverrideRemaining()
	msg := fmt.Sprintf("forced %s for %s", state, remaining.Round(time.Millisecond))
	a.log.Info("override requested", zap.String("state", string(state)), zap.Duration("window", remaining))
	a.emitLog("info", msg)
	writeCommandResult(w, commandResult{OK: true, Message: msg})
}

// handleReset restores the initial pipeline state. A running engine is
// restarted so the daemon keeps evaluating.
func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	wasRunning := a.engine.Running()
	a.engine.Reset()
	msg := "presence pipeline reset"
	if wasRunning {
		a.engine.Start()
		msg += ", engine restarted"
	}
	a.emitLog("info", msg)
	writeCommandResult(w, commandResult{OK: true, Message: msg})
}

func (a *App) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if a.engine.Running() {
		writeCommandResult(w, commandResult{OK: true, Message: "engine already running"})
		return
	}
	a.engine.Start()
	a.emitLog("info", "engine started")
	writeCommandResult(w, commandResult{OK: true, Message: "engine started"})
}

func (a *App) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !a.engine.Running() {
		writeCommandResult(w, commandResult{OK: true, Message: "engine already stopped"})
		return
	}
	a.engine.Stop()
	a.emitLog("warn", "engine stopped, glyph frozen")
	writeCommandResult(w, commandResult{OK: true, Message: "engine stopped"})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// commandResult is the reply body of every POST command.
type commandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// queryCount parses ?count=N. Missing means everything.
func queryCount(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("count must be a non-negative integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// writeCommandResult writes a commandResult as JSON.
func writeCommandResult(w http.ResponseWriter, result commandResult) {
	code := http.StatusOK
	if !result.OK {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, result)
}
