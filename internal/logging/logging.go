// Package logging configures the engine's structured logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Config controls logger construction.
type Config struct {
	Level         slog.Level
	FilePath      string
	MaxSizeMB     int
	MaxFiles      int
	WriteToStderr bool
}

// DefaultConfig returns the engine's normal logging configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		Level:         slog.LevelInfo,
		FilePath:      filepath.Join(dataDir, "logs", "glyph.log"),
		MaxSizeMB:     20,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// DebugConfig returns a verbose configuration for local development.
func DebugConfig(dataDir string) Config {
	cfg := DefaultConfig(dataDir)
	cfg.Level = slog.LevelDebug
	return cfg
}

// Setup builds a slog.Logger writing JSON to a rotating file and, when
// WriteToStderr is set, the same JSON records to stderr as well; there is no
// separate text format for stderr. The returned cleanup func must be called on
// shutdown to flush and close the file handle.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	rotator := newRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)

	var writer io.Writer = rotator
	if cfg.WriteToStderr {
		writer = io.MultiWriter(rotator, os.Stderr)
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: cfg.Level})
	logger := slog.New(handler)

	cleanup := func() {
		_ = rotator.Close()
	}
	return logger, cleanup, nil
}
