package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/large-farva/presence-engine/internal/logging"
)

func TestJSONLoggerWritesStructuredFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "presence.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("glyph state changed", zap.String("to", "ripple"))
	_ = logger.Sync()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected debug entry to be filtered, got %q", out)
	}
	if !strings.Contains(out, `"to":"ripple"`) {
		t.Fatalf("expected structured field in output, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerOnlyForDebug(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		level      string
		wantCaller bool
	}{
		{"info", false},
		{"debug", true},
	} {
		logPath := filepath.Join(dir, tc.level+".log")
		logger, err := logging.New(logging.Options{Level: tc.level, OutputPaths: []string{logPath}})
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		logger.Info("message")
		_ = logger.Sync()

		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if got := strings.Contains(string(content), ".go:"); got != tc.wantCaller {
			t.Fatalf("level %s: expected caller=%v, got %q", tc.level, tc.wantCaller, content)
		}
	}
}

func TestRejectsUnknownFormatAndLevel(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
	if _, err := logging.New(logging.Options{Level: "chatty"}); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"DEBUG": zapcore.DebugLevel,
		" warn": zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := logging.ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
}
