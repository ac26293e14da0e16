package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/ctxlog"
	"github.com/vk/sentgrid/internal/hcl"
	"github.com/vk/sentgrid/internal/metrics"
	"github.com/vk/sentgrid/internal/registry"
	"github.com/vk/sentgrid/internal/yamlctx"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	cfg       *Config
	registry  *registry.Registry
	model     *config.Model
	converter config.Converter
	inputs    *yamlctx.File
	metrics   *metrics.Collector
}

// NewApp is the constructor for the main application. Derivations are
// written to outW unless cfg.OutputPath is set; logs go to logW. It loads
// and validates the grammar so configuration errors surface before Run.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.GrammarPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar: %w", err)
	}
	logger.Debug("Grammar loaded and translated into unified model.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := reg.ValidateModel(ctx, model); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:      outW,
		logger:    logger,
		cfg:       cfg,
		registry:  reg,
		model:     model,
		converter: hcl.NewConverter(),
		metrics:   metrics.New(),
	}

	if cfg.ContextsPath != "" {
		if a.inputs, err = yamlctx.Load(cfg.ContextsPath, a.converter); err != nil {
			return nil, fmt.Errorf("failed to load contexts: %w", err)
		}
		logger.Debug("Context inputs loaded.", "contexts", len(a.inputs.Contexts), "constant_tokens", len(a.inputs.Constants))
	}
	if model.Generation.Contextual && a.inputs == nil {
		return nil, fmt.Errorf("grammar is contextual but no contexts file was given")
	}

	// Building one generator up front reports grammar errors at startup.
	if _, err := a.newGenerator(0); err != nil {
		return nil, err
	}
	return a, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the collector fed by every generator the App builds.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}
