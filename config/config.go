// Package config loads recognition settings from YAML. Thresholds are
// deployment-specific tuning knobs, so they live in configuration rather
// than code.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/facekit/facekit/descriptor"
)

// Thresholds holds the kind-specific distance cutoffs.
type Thresholds struct {
	// Embedding is the Euclidean cutoff for embedding galleries.
	Embedding float64 `yaml:"embedding"`

	// Histogram is the chi-square cutoff for histogram galleries.
	Histogram float64 `yaml:"histogram"`
}

// For returns the threshold bound to the descriptor kind.
func (t Thresholds) For(kind descriptor.Kind) float64 {
	if kind == descriptor.KindHistogram {
		return t.Histogram
	}

	return t.Embedding
}

// Config is the recognition configuration.
type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`

	// MaxFaces caps how many detected faces one run processes.
	MaxFaces int `yaml:"max_faces"`

	// MatchConcurrency bounds the per-face matching worker pool.
	// 0 means one worker per face.
	MatchConcurrency int `yaml:"match_concurrency"`

	History struct {
		// Capacity bounds the in-memory run log.
		Capacity int `yaml:"capacity"`
	} `yaml:"history"`
}

// Default returns the stock configuration: a strict embedding cutoff,
// the conventional LBPH histogram cutoff, and a 50-face cap per image.
func Default() Config {
	cfg := Config{
		Thresholds: Thresholds{
			Embedding: 0.6,
			Histogram: 100,
		},
		MaxFaces: 50,
	}
	cfg.History.Capacity = 50

	return cfg
}

// Parse decodes YAML into a Config. Omitted fields keep their defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Thresholds.Embedding <= 0 {
		return fmt.Errorf("embedding threshold must be positive, got %v", c.Thresholds.Embedding)
	}

	if c.Thresholds.Histogram <= 0 {
		return fmt.Errorf("histogram threshold must be positive, got %v", c.Thresholds.Histogram)
	}

	if c.MaxFaces <= 0 {
		return fmt.Errorf("max_faces must be positive, got %d", c.MaxFaces)
	}

	if c.MatchConcurrency < 0 {
		return fmt.Errorf("match_concurrency must not be negative, got %d", c.MatchConcurrency)
	}

	return nil
}
