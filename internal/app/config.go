package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero generation parameters defer to the grammar's generation block.
type Config struct {
	GrammarPath  string // .hcl file or directory
	ContextsPath string // YAML inputs, required by contextual grammars
	OutputPath   string // empty writes to the App's output writer
	MetricsPath  string // Prometheus text dump, empty disables

	LogFormat string
	LogLevel  string

	Seed       uint64
	MaxDepth   int
	TargetSize int
	Iterations int
	Shards     int
	// One generates a single derivation per context input.
	One bool
}

// NewConfig validates cfg and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GrammarPath == "" {
		return nil, errors.New("GrammarPath is a required configuration field and cannot be empty")
	}

	var errs []error
	if cfg.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max depth must not be negative, got %d", cfg.MaxDepth))
	}
	if cfg.TargetSize < 0 {
		errs = append(errs, fmt.Errorf("target size must not be negative, got %d", cfg.TargetSize))
	}
	if cfg.Iterations < 0 {
		errs = append(errs, fmt.Errorf("iterations must not be negative, got %d", cfg.Iterations))
	}
	if cfg.Shards < 0 {
		errs = append(errs, fmt.Errorf("shards must not be negative, got %d", cfg.Shards))
	}
	if cfg.One && cfg.ContextsPath == "" {
		errs = append(errs, errors.New("single-derivation mode requires a contexts file"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.Iterations == 0 {
		cfg.Iterations = 1
	}
	if cfg.Shards == 0 {
		cfg.Shards = 1
	}
	return &cfg, nil
}
