package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexInfoCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "info [path]",
		Short: "Show index size and composition for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndexInfo(cmd.Context(), cmd, path, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output machine-readable JSON")
	return cmd
}

func runIndexInfo(ctx context.Context, cmd *cobra.Command, path string, jsonOutput bool) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	e, err := openEngine(root)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	info, err := e.indexer.GetInfo(ctx)
	if err != nil {
		return fmt.Errorf("reading index info: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project:  %s\n", info.ProjectID)
	fmt.Fprintf(out, "Files:    %d\n", info.FileCount)
	fmt.Fprintf(out, "Chunks:   %d\n", info.ChunkCount)
	fmt.Fprintf(out, "Vectors:  %d\n", info.VectorCount)
	return nil
}
