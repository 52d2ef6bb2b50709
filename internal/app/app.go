// Package app wires together the HTTP server, WebSocket hub, signal
// collector, interpreter, presence engine and the optional demo runner. It
// owns the daemon's lifecycle and bridges engine events onto the hub.
package app

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/clock"
	"github.com/large-farva/presence-engine/internal/config"
	"github.com/large-farva/presence-engine/internal/demo"
	"github.com/large-farva/presence-engine/internal/engine"
	"github.com/large-farva/presence-engine/internal/interpret"
	"github.com/large-farva/presence-engine/internal/signals"
	"github.com/large-farva/presence-engine/internal/telemetry"
	"github.com/large-farva/presence-engine/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *zap.Logger
	Cfg        config.Config
	ConfigPath string
	Bind       string
	// Clock drives the collector and engine. Nil means the real clock.
	Clock clock.Clock
}

// App is the top-level daemon process.
type App struct {
	log        *zap.Logger
	cfg        config.Config
	configPath string
	bind       string
	server     *http.Server

	startedAt time.Time

	collector *signals.Collector
	interp    *interpret.Interpreter
	engine    *engine.Engine
	wsHub     *ws.Hub

	lockPath string
	lock     *flock.Flock
}

// New builds the pipeline and bridges engine events onto the hub. The engine
// is idle until Run starts it.
func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}

	collector := signals.New(clk, logger)
	interp := interpret.New()
	a := &App{
		log:        logger,
		cfg:        opts.Cfg,
		configPath: opts.ConfigPath,
		bind:       opts.Bind,
		startedAt:  time.Now(),
		collector:  collector,
		interp:     interp,
		engine: engine.New(collector, interp, engine.Options{
			Clock:  clk,
			Logger: logger,
			Timing: opts.Cfg.Timing.Durations(),
		}),
		wsHub: ws.NewHub(logger),
	}
	for _, name := range engine.EventNames {
		a.engine.Subscribe(name, a.forward)
	}
	return a
}

// forward relays an engine event to every WebSocket client.
func (a *App) forward(ev engine.Event) {
	v, ok := telemetry.FromEngine(ev)
	if !ok {
		a.log.Warn("dropping unknown engine event", zap.String("event", string(ev.Name)))
		return
	}
	a.wsHub.BroadcastJSON(v)
}

// Handler returns the daemon's HTTP routes.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/state", a.handleState)
	mux.HandleFunc("/api/history", a.handleHistory)
	mux.HandleFunc("/api/pattern", a.handlePattern)
	mux.HandleFunc("/api/patterns", a.handlePatterns)
	mux.HandleFunc("/api/signals", a.handleSignals)
	mux.HandleFunc("/api/metrics", a.handleMetrics)
	mux.HandleFunc("/api/config", a.handleConfig)
	mux.HandleFunc("/api/schema", a.handleSchema)
	mux.HandleFunc("/api/version", a.handleVersion)
	mux.HandleFunc("/api/signal", a.handleSignal)
	mux.HandleFunc("/api/force", a.handleForce)
	mux.HandleFunc("/api/reset", a.handleReset)
	mux.HandleFunc("/api/start", a.handleStart)
	mux.HandleFunc("/api/stop", a.handleStop)
	mux.Handle("/ws", a.wsHub.Handler())
	return mux
}

// Run takes the single-instance lock, starts the HTTP server, WebSocket hub,
// heartbeat ticker, engine and (when enabled) the demo runner. It blocks
// until the context is cancelled or the server returns an error.
func (a *App) Run(ctx context.Context) error {
	if err := a.acquireLock(); err != nil {
		return err
	}
	defer a.releaseLock()

	bind := a.bind
	if bind == "" && a.cfg.Server.Bind != "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "127.0.0.1:8088"
	}

	a.server = &http.Server{
		Addr:              bind,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}

	a.log.Info("listening", zap.String("addr", "http://"+bind))

	go a.wsHub.Run(ctx)
	a.engine.Start()
	defer a.engine.Stop()
	go a.heartbeatLoop(ctx)

	if a.cfg.Demo.Enabled {
		r := demo.New(a.collector, a.wsHub, a.log)
		if a.cfg.Demo.IntervalSeconds > 0 {
			r.Interval = time.Duration(a.cfg.Demo.IntervalSeconds) * time.Second
		}
		go r.Run(ctx)
	}

	go func() {
		<-ctx.Done()
		a.log.Info("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.server.Shutdown(shutdownCtx)
	}()

	return a.server.Serve(ln)
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastJSON(a.heartbeat())
		}
	}
}

func (a *App) heartbeat() telemetry.Heartbeat {
	return telemetry.Heartbeat{
		Event:         telemetry.Event{Type: telemetry.EventHeartbeat, TS: telemetry.NowTS()},
		State:         string(a.engine.CurrentState()),
		Running:       a.engine.Running(),
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
	}
}

// emitLog pushes an operator-facing log line to every WebSocket client.
func (a *App) emitLog(level, msg string) {
	a.wsHub.BroadcastJSON(telemetry.LogLine{
		Event:   telemetry.Event{Type: telemetry.EventLog, TS: telemetry.NowTS()},
		Level:   level,
		Message: msg,
	})
}
