package watch

import (
	"context"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/CoreumFoundation/coreum-tools/pkg/logger"
	"github.com/CoreumFoundation/coreum-tools/pkg/parallel"
)

// DefaultDebounce is the time window during which filesystem events are coalesced into one trigger.
const DefaultDebounce = 200 * time.Millisecond

// Config configures the watch loop.
type Config struct {
	// Dirs are the directories observed for changes. Missing dirs are skipped.
	Dirs []string

	// Debounce is the event coalescing window, DefaultDebounce when zero.
	Debounce time.Duration
}

// Run executes fn once, then re-executes it whenever files under the watched dirs change.
// A failing fn does not stop the loop, the error is logged and the watcher keeps running.
// The loop terminates when ctx is canceled.
func Run(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	debounce := config.Debounce
	if debounce == 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithStack(err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range config.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.WithStack(err)
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no existing directories to watch")
	}

	trigger := make(chan struct{}, 1)

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("watcher", parallel.Fail, func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case event := <-watcher.Events:
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					coalesce(ctx, watcher, debounce)
					select {
					case trigger <- struct{}{}:
					default:
					}
				case err := <-watcher.Errors:
					return errors.WithStack(err)
				}
			}
		})
		spawn("runner", parallel.Fail, func(ctx context.Context) error {
			log := logger.Get(ctx)
			for {
				if err := fn(ctx); err != nil {
					if errors.Is(err, ctx.Err()) {
						return err
					}
					log.Error("Tasks failed, watching for changes", zap.Error(err))
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-trigger:
					log.Info("Changes detected, re-running tasks")
				}
			}
		})
		return nil
	})
}

// coalesce drains events arriving shortly after the first one so one save burst
// produces a single re-run.
func coalesce(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) {
	timer := time.NewTimer(debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.Events:
		case <-timer.C:
			return
		}
	}
}
