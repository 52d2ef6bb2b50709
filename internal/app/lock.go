package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const lockFileName = "presenced.lock"

// acquireLock enforces a single daemon per run directory.
func (a *App) acquireLock() error {
	dir := a.cfg.Data.RunDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure run dir: %w", err)
	}
	a.lockPath = filepath.Join(dir, lockFileName)
	a.lock = flock.New(a.lockPath)

	ok, err := a.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another presenced instance is already running")
	}
	a.log.Info("daemon lock acquired", zap.String("lock", a.lockPath))
	return nil
}

func (a *App) releaseLock() {
	if a.lock == nil {
		return
	}
	if err := a.lock.Unlock(); err != nil {
		a.log.Warn("failed to release daemon lock", zap.Error(err))
	}
}

// lockHeld reports whether this process holds the daemon lock.
func (a *App) lockHeld() bool {
	return a.lock != nil && a.lock.Locked()
}
