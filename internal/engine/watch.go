package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-analyzes the workbook at path after every change and hands the
// result to onChange, until ctx is cancelled. Bursts of events within the
// debounce window produce a single run. Runs happen on the calling goroutine,
// one at a time, and none is in flight once Watch returns.
//
// The parent directory is watched so that editors replacing the file on
// save are still seen.
func (e *Engine) Watch(ctx context.Context, path string, onChange func(*Report, error)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	e.logger.Info("watching workbook", slog.String("path", abs))

	debounce := time.NewTimer(e.debounce)
	debounce.Stop()
	defer debounce.Stop()
	// nil until a change is pending
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(e.debounce)
			pending = debounce.C

		case <-pending:
			pending = nil
			if ctx.Err() != nil {
				return nil
			}
			e.logger.Info("change detected", slog.String("file", filepath.Base(abs)))
			onChange(e.Analyze(ctx, path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
