package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glyphcode/glyph/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		force bool
		noTUI bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Run an incremental index pass over a directory",
		Long: `Scan a directory, diff it against the last Merkle snapshot, and
re-process only what changed: parsing, chunking, embedding and updating
both the lexical (BM25) and vector indexes.

Use --force to skip the Merkle early-exit and re-index every file,
even if nothing changed on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(ctx, cmd, path, force, noTUI)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the Merkle early-exit and re-index every file")
	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "disable the progress TUI, use plain text output")

	cmd.AddCommand(newIndexInfoCmd())
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string, force, noTUI bool) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	cleanup := setupLogging(dataDirFor(root))
	defer cleanup()

	renderer := ui.NewRenderer(ui.Config{Output: cmd.OutOrStdout(), ForcePlain: noTUI})
	if err := renderer.Start(ctx); err != nil {
		renderer = ui.NewPlainRenderer(cmd.OutOrStdout())
	}
	defer func() { _ = renderer.Stop() }()

	renderer.Update(ui.ProgressEvent{Stage: ui.StageScanning, CurrentFile: root})

	e, err := openEngine(root)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	renderer.Update(ui.ProgressEvent{Stage: ui.StageIndexing, CurrentFile: root})

	report, err := e.indexer.Run(ctx, force)
	if err != nil {
		return fmt.Errorf("index pass failed: %w", err)
	}

	renderer.Complete(ui.Summary{
		Added:    report.Added,
		Modified: report.Modified,
		Deleted:  report.Deleted,
		Failed:   len(report.Failed),
		Duration: report.Duration.Round(1e7).String(),
	})

	for _, f := range report.Failed {
		fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s: %v\n", f.Path, f.Err)
	}
	return nil
}

func dataDirFor(root string) string {
	return filepath.Join(root, dataDirName)
}
