// Package coordinator pairs an Indexer with a Watcher so a long-running
// process (the MCP server, via `cmd/glyph serve --watch`) can keep a
// workspace's index fresh without the caller driving re-index passes by
// hand. It does not alter indexer.Indexer's contract or concurrency model —
// it is purely an external driver of Run, exactly as spec.md §9 allows.
package coordinator

import (
	"context"
	"log/slog"
	"time"

	"github.com/glyphcode/glyph/internal/indexer"
	"github.com/glyphcode/glyph/internal/watcher"
)

// Coordinator drives an initial index pass followed by event-triggered
// index passes.
type Coordinator struct {
	indexer *indexer.Indexer
	watcher *watcher.Watcher
	logger  *slog.Logger
}

// New builds a Coordinator watching root and re-indexing ix on debounced
// filesystem change bursts.
func New(ix *indexer.Indexer, root string, debounce time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	runner := watcher.RunnerFunc(func(ctx context.Context) error {
		report, err := ix.Run(ctx, false)
		if err != nil {
			return err
		}
		logger.Info("watch-triggered index pass complete",
			"added", report.Added, "modified", report.Modified, "deleted", report.Deleted)
		return nil
	})
	return &Coordinator{
		indexer: ix,
		watcher: watcher.New(root, runner, debounce, logger),
		logger:  logger,
	}
}

// Run performs one synchronous pass up front, then blocks watching the
// filesystem until ctx is canceled. The initial pass guarantees the index
// is current before the watch loop's debounce window can mask a change
// made while the coordinator itself was starting.
func (c *Coordinator) Run(ctx context.Context) error {
	if _, err := c.indexer.Run(ctx, false); err != nil {
		c.logger.Warn("initial index pass failed", "error", err)
	}
	return c.watcher.Watch(ctx)
}
