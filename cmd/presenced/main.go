// Presenced is the presence engine daemon.
//
// It loads configuration, starts the HTTP/WebSocket server, and runs the
// signal collector, interpreter, and glyph state machine. With demo mode
// enabled it also replays scripted activity so the glyph has something to
// react to. Shutdown is handled gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/large-farva/presence-engine/internal/app"
	"github.com/large-farva/presence-engine/internal/config"
	"github.com/large-farva/presence-engine/internal/logging"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/presence/presence.toml", "Path to config TOML")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides server.bind)")
		logLevel   = pflag.String("log-level", "", "Log level (overrides logging.level)")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	usedDefaults := false
	if err != nil {
		// The default path is optional; an explicit --config must exist.
		if !errors.Is(err, os.ErrNotExist) || pflag.CommandLine.Changed("config") {
			fmt.Fprintf(os.Stderr, "presenced: config load failed: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
		usedDefaults = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "presenced: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger = logger.Named("presenced")
	if usedDefaults {
		logger.Warn("config file not found, using defaults", zap.String("path", *configPath))
		*configPath = ""
	}

	a := app.New(app.Options{
		Logger:     logger,
		Cfg:        cfg,
		ConfigPath: *configPath,
		Bind:       *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("presenced failed", zap.Error(err))
	}
}
