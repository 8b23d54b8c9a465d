// Package ui provides terminal progress display for long-running CLI
// operations (currently just `glyph index`): a rich bubbletea renderer for
// interactive terminals and a plain line-based fallback for pipes, CI, and
// --no-tui.
package ui

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Stage identifies which phase of an index pass is running.
type Stage int

const (
	StageScanning Stage = iota
	StageIndexing
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageScanning:
		return "Scanning"
	case StageIndexing:
		return "Indexing"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// ProgressEvent is one update to the current pass's progress.
type ProgressEvent struct {
	Stage       Stage
	Current     int
	Total       int
	CurrentFile string
}

// Summary is the final report shown when a pass completes.
type Summary struct {
	Added    int
	Modified int
	Deleted  int
	Failed   int
	Duration string
}

// Renderer displays progress for one index pass.
type Renderer interface {
	Start(ctx context.Context) error
	Update(event ProgressEvent)
	Complete(summary Summary)
	Stop() error
}

// Config controls renderer selection and output.
type Config struct {
	Output     io.Writer
	ForcePlain bool
}

// NewRenderer picks a TUI renderer for interactive terminals and falls back
// to plain line output for pipes, CI, or when ForcePlain is set.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) {
		return NewPlainRenderer(cfg.Output)
	}
	tui, err := NewTUIRenderer(cfg.Output)
	if err != nil {
		return NewPlainRenderer(cfg.Output)
	}
	return tui
}

// IsTTY reports whether w is a terminal file descriptor.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
