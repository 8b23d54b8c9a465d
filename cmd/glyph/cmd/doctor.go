package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

type checkStatus string

const (
	statusPass checkStatus = "pass"
	statusWarn checkStatus = "warn"
	statusFail checkStatus = "fail"
)

type checkResult struct {
	Name     string      `json:"name"`
	Status   checkStatus `json:"status"`
	Message  string      `json:"message"`
	Required bool        `json:"required"`
}

func newDoctorCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check that a project is ready to be indexed and served",
		Long: `Run diagnostics on a project directory: write permissions, free disk
space, and the state of an existing index.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runDoctor(cmd, path, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output machine-readable JSON")
	return cmd
}

func runDoctor(cmd *cobra.Command, path string, jsonOutput bool) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}

	results := []checkResult{
		checkWritable(root),
		checkDiskSpace(root),
		checkIndex(cmd.Context(), root),
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	out := cmd.OutOrStdout()
	failed := false
	for _, r := range results {
		symbol := "ok"
		switch r.Status {
		case statusWarn:
			symbol = "warn"
		case statusFail:
			symbol = "FAIL"
			if r.Required {
				failed = true
			}
		}
		fmt.Fprintf(out, "[%4s] %-20s %s\n", symbol, r.Name, r.Message)
	}

	if failed {
		return fmt.Errorf("doctor: one or more required checks failed")
	}
	return nil
}

func checkWritable(root string) checkResult {
	probe := filepath.Join(root, dataDirName, ".doctor-probe")
	if err := os.MkdirAll(filepath.Dir(probe), 0o755); err != nil {
		return checkResult{Name: "write-permissions", Status: statusFail, Required: true, Message: err.Error()}
	}
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return checkResult{Name: "write-permissions", Status: statusFail, Required: true, Message: err.Error()}
	}
	_ = os.Remove(probe)
	return checkResult{Name: "write-permissions", Status: statusPass, Required: true, Message: "data directory is writable"}
}

const minFreeBytes = 100 * 1024 * 1024

func checkDiskSpace(root string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(root, &stat); err != nil {
		return checkResult{Name: "disk-space", Status: statusWarn, Message: "could not determine free disk space: " + err.Error()}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFreeBytes {
		return checkResult{Name: "disk-space", Status: statusFail, Required: true, Message: fmt.Sprintf("only %d MB free, need at least 100 MB", free/(1024*1024))}
	}
	return checkResult{Name: "disk-space", Status: statusPass, Message: fmt.Sprintf("%d MB free", free/(1024*1024))}
}

func checkIndex(ctx context.Context, root string) checkResult {
	dataDir := filepath.Join(root, dataDirName)
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		return checkResult{Name: "index", Status: statusWarn, Message: "no index found, run 'glyph index'"}
	}

	e, err := openEngine(root)
	if err != nil {
		return checkResult{Name: "index", Status: statusFail, Message: "index exists but failed to open: " + err.Error()}
	}
	defer func() { _ = e.Close() }()

	info, err := e.indexer.GetInfo(ctx)
	if err != nil {
		return checkResult{Name: "index", Status: statusFail, Message: "failed to read index info: " + err.Error()}
	}
	if info.FileCount == 0 {
		return checkResult{Name: "index", Status: statusWarn, Message: "index is empty, run 'glyph index'"}
	}
	return checkResult{Name: "index", Status: statusPass, Message: fmt.Sprintf("%d files, %d chunks indexed", info.FileCount, info.ChunkCount)}
}
