// Package config loads the project configuration that drives a glyph
// workspace: scan paths, chunking limits, fusion weights and worker counts.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the top-level project configuration, loaded from
// .glyph/config.yaml with environment-variable overrides.
type Config struct {
	Version int          `yaml:"version" json:"version"`
	Paths   PathsConfig  `yaml:"paths" json:"paths"`
	Chunk   ChunkConfig  `yaml:"chunk" json:"chunk"`
	Search  SearchConfig `yaml:"search" json:"search"`
	Workers WorkerConfig `yaml:"workers" json:"workers"`
	Vector  VectorConfig `yaml:"vector" json:"vector"`
}

// PathsConfig holds the scan-path settings. Only MaxFileSizeBytes is passed
// on to the walker; Include and Exclude are loaded but not applied.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
	// MaxFileSizeBytes skips files larger than this. Zero means use the default.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" json:"max_file_size_bytes"`
}

// ChunkConfig controls the chunker's token budget.
type ChunkConfig struct {
	MaxTokens     int `yaml:"max_tokens" json:"max_tokens"`
	OverlapTokens int `yaml:"overlap_tokens" json:"overlap_tokens"`
}

// SearchConfig controls the query router's fusion behavior.
type SearchConfig struct {
	BM25Weight     float64 `yaml:"bm25_weight" json:"bm25_weight"`
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	RRFConstant    int     `yaml:"rrf_constant" json:"rrf_constant"`
	DefaultLimit   int     `yaml:"default_limit" json:"default_limit"`
}

// WorkerConfig controls the indexing worker pool.
type WorkerConfig struct {
	Count           int `yaml:"count" json:"count"`
	EmbedBatchSize  int `yaml:"embed_batch_size" json:"embed_batch_size"`
}

// VectorConfig controls the vector store backend.
type VectorConfig struct {
	// StoreURL, when set, points at an out-of-process vector backend.
	// The reference implementation ignores it and always uses the
	// in-process HNSW store, but the field is honored by future backends.
	StoreURL string `yaml:"store_url" json:"store_url"`
}

const CurrentVersion = 1

// Default returns a Config with sensible defaults for a fresh workspace.
func Default() Config {
	return Config{
		Version: CurrentVersion,
		Paths: PathsConfig{
			Include:          []string{"."},
			MaxFileSizeBytes: 1 << 20, // 1 MiB
		},
		Chunk: ChunkConfig{
			MaxTokens:     512,
			OverlapTokens: 100,
		},
		Search: SearchConfig{
			BM25Weight:     1.0,
			SemanticWeight: 1.0,
			RRFConstant:    60,
			DefaultLimit:   10,
		},
		Workers: WorkerConfig{
			Count:          runtime.NumCPU(),
			EmbedBatchSize: 32,
		},
	}
}

// Load reads a YAML config file, falling back to defaults for any field
// not present, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if url := os.Getenv("VECTOR_STORE_URL"); url != "" {
		cfg.Vector.StoreURL = url
	}
}

// Save writes the config back to disk as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
