// Package cmd provides the CLI commands for glyph.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glyphcode/glyph/internal/logging"
)

// dataDirName is the per-project directory holding every persisted index
// artifact (metadata DB, lexical index, vector store, Merkle snapshots).
const dataDirName = ".glyph"

var debugMode bool

// NewRootCmd builds the root glyph command and wires its subcommands.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "glyph",
		Short: "Local code intelligence: hybrid search and structural queries over a codebase",
		Long: `glyph indexes a codebase into a local hybrid (BM25 + semantic) search
index and a structural query layer, and serves both over an MCP tool
protocol for AI coding assistants.

Run 'glyph index' once, then 'glyph search <query>' or 'glyph serve' to
expose the index over stdio to an MCP client.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug-level logging to <project>/.glyph/logs")

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newDoctorCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// resolveRoot turns a CLI path argument into an absolute project root.
func resolveRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("accessing path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// setupLogging configures file logging for a CLI invocation. Output stays
// off stderr by default so it never interleaves with command output (and,
// for `serve`, never collides with stdio JSON-RPC framing).
func setupLogging(dataDir string) func() {
	cfg := logging.DefaultConfig(dataDir)
	cfg.WriteToStderr = false
	if debugMode {
		cfg = logging.DebugConfig(dataDir)
		cfg.WriteToStderr = false
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return func() {}
	}
	slog.SetDefault(logger)
	return cleanup
}
