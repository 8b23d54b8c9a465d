package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glyphcode/glyph/internal/coordinator"
	"github.com/glyphcode/glyph/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		watch    bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve the index over stdio as an MCP tool server",
		Long: `Expose search and structural-query tools over the MCP protocol on
stdin/stdout, for use by an AI coding assistant.

With --watch, the project is re-indexed in the background whenever an
entry directly in the project root directory changes, instead of requiring
a manual 'glyph index' pass. Subdirectories are not watched.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runServe(ctx, path, watch, debounce)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "re-index automatically on filesystem changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 2*time.Second, "quiet period before a watch-triggered re-index")

	return cmd
}

func runServe(ctx context.Context, path string, watch bool, debounce time.Duration) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	cleanup := setupLogging(dataDirFor(root))
	defer cleanup()
	logger := slog.Default()

	e, err := openEngine(root)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	server, err := mcp.NewServer(e.indexer, e.router, e.structuralEngine(), root, logger)
	if err != nil {
		return fmt.Errorf("building MCP server: %w", err)
	}

	if !watch {
		return server.Run(ctx)
	}

	co := coordinator.New(e.indexer, root, debounce, logger)
	go func() {
		if err := co.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("watch coordinator stopped", "error", err)
		}
	}()

	return server.Run(ctx)
}
