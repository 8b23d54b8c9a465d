// Package watcher is the optional background controller that drives an
// Indexer from filesystem events, debouncing bursts of changes into a
// single re-index pass. It does not alter the indexer's contract or
// concurrency model — it is purely an external driver of Run.
package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Runner is the subset of indexer.Indexer the watcher needs, kept narrow so
// this package doesn't import the indexer package directly.
type Runner interface {
	Run(ctx context.Context) error
}

// runFunc adapts a plain function to Runner.
type runFunc func(ctx context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

// RunnerFunc wraps a function as a Runner.
func RunnerFunc(f func(ctx context.Context) error) Runner {
	return runFunc(f)
}

// Watcher debounces fsnotify events and triggers re-index passes.
type Watcher struct {
	root     string
	runner   Runner
	debounce time.Duration
	logger   *slog.Logger
}

// New builds a Watcher over root, driving runner on debounced change
// bursts.
func New(root string, runner Runner, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{root: root, runner: runner, debounce: debounce, logger: logger}
}

// Watch blocks until ctx is canceled, triggering a re-index pass after each
// debounced burst of filesystem events.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.runner.Run(ctx); err != nil {
				w.logger.Warn("triggered index pass failed", "error", err)
			}
		}
	}
}
