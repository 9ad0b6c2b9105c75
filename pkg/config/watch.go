package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the bursts of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Watch reloads filename whenever it changes on disk and passes the freshly
// loaded value to onReload. newTarget must return a new value seeded with
// defaults on every call. A file that fails to load or validate is logged and
// skipped, so onReload only ever sees valid configuration.
//
// The parent directory is watched rather than the file itself so that
// atomic replace-by-rename saves are picked up. Watch blocks until ctx is
// cancelled.
func Watch[T any](ctx context.Context, filename string, logger *slog.Logger, newTarget func() *T, onReload func(*T)) error {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Info("config watcher: started", slog.String("path", abs))

	var (
		timer    *time.Timer
		reloadCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("config watcher: stopped")
			return nil

		case <-reloadCh:
			reloadCh = nil
			target := newTarget()
			if err := Load(abs, target); err != nil {
				logger.Warn("config watcher: reload failed, keeping previous config",
					slog.String("path", abs),
					slog.String("error", err.Error()))
				continue
			}
			logger.Info("config watcher: reloaded", slog.String("path", abs))
			onReload(target)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Stop()
				timer.Reset(reloadDebounce)
			}
			reloadCh = timer.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
