package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glyphcode/glyph/internal/search"
)

type searchOptions struct {
	limit     int
	directory string
	format    string
	vecOnly   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid lexical/semantic search over the index",
		Long: `Search the indexed codebase using hybrid search: BM25 keyword
matching and semantic embedding similarity, combined with Reciprocal Rank
Fusion.

Examples:
  glyph search "authentication middleware"
  glyph search "handleRequest" --limit 5 --format json
  glyph search "error handling" --directory internal/store`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, ".", query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().StringVarP(&opts.directory, "directory", "d", "", "restrict results to a path prefix within the project")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text, json")
	cmd.Flags().BoolVar(&opts.vecOnly, "vector-only", false, "use semantic search only, skip BM25")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, path, query string, opts searchOptions) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	e, err := openEngine(root)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	var results []search.Result
	if opts.vecOnly {
		results, err = e.router.SearchVectorOnly(ctx, opts.directory, query, opts.limit)
	} else {
		results, err = e.router.Search(ctx, projectID(root), opts.directory, query, opts.limit)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no results")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s  (score %.4f)\n", i+1, r.FilePath, r.Score)
		if r.SymbolName != "" {
			fmt.Fprintf(out, "   %s %s\n", r.SymbolKind, r.SymbolName)
		}
		snippet := r.Content
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		fmt.Fprintf(out, "   %s\n\n", strings.ReplaceAll(snippet, "\n", " "))
	}
	return nil
}
