package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/vk/sentgrid/generator"
	"github.com/vk/sentgrid/internal/ctxlog"
)

// Run generates derivations according to the App's configuration.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	out, closeOut, err := a.openOutput()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output: %w", cerr)
		}
	}()

	w := newRecordWriter(out, a.converter)
	var inputs []any
	var opts []generator.CallOption
	if a.inputs != nil {
		inputs = a.inputs.Inputs()
		opts = append(opts, generator.WithConstants(a.inputs.GrammarConstants()))
	}

	a.logger.Info("Starting generation.",
		"iterations", a.cfg.Iterations,
		"shards", a.cfg.Shards,
		"inputs", len(inputs),
		"single", a.cfg.One,
	)
	switch {
	case a.cfg.One:
		err = a.runOne(ctx, w, inputs, opts)
	case a.cfg.Shards > 1:
		err = a.runSharded(ctx, w, inputs, opts)
	default:
		err = a.runSerial(ctx, w, inputs, opts)
	}
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	a.logger.Info("Generation finished.", "derivations", w.count)

	if a.cfg.MetricsPath != "" {
		if err := a.writeMetrics(a.cfg.MetricsPath); err != nil {
			return err
		}
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

// runSerial reuses one generator across iterations so learned prune factors
// and cached context-free cells carry over.
func (a *App) runSerial(ctx context.Context, w *recordWriter, inputs []any, opts []generator.CallOption) error {
	g, err := a.newGenerator(0)
	if err != nil {
		return err
	}
	for it := range a.cfg.Iterations {
		w.iteration = it
		if err := g.Generate(ctx, inputs, w.write, opts...); err != nil {
			return err
		}
		a.logger.Debug("Iteration finished.", "iteration", it, "emitted", g.Progress())
	}
	return nil
}

func (a *App) runSharded(ctx context.Context, w *recordWriter, inputs []any, opts []generator.CallOption) error {
	for it := range a.cfg.Iterations {
		w.iteration = it
		newGenerator := func(shard int) (*generator.Generator, error) {
			return a.newGenerator(it*a.cfg.Shards + shard + 1)
		}
		if err := generator.GenerateSharded(ctx, newGenerator, inputs, a.cfg.Shards, w.write, opts...); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runOne(ctx context.Context, w *recordWriter, inputs []any, opts []generator.CallOption) error {
	g, err := a.newGenerator(0)
	if err != nil {
		return err
	}
	for it := range a.cfg.Iterations {
		w.iteration = it
		for i, in := range inputs {
			d, err := g.GenerateOne(ctx, in, opts...)
			if err != nil {
				return err
			}
			if d == nil {
				a.logger.Debug("No derivation for input.", "input", i)
				continue
			}
			if err := w.writeInput(i, d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *App) openOutput() (io.Writer, func() error, error) {
	if a.cfg.OutputPath == "" {
		return a.outW, func() error { return nil }, nil
	}
	f, err := os.Create(a.cfg.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func (a *App) writeMetrics(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	if err := a.metrics.WriteText(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close metrics file: %w", err)
	}
	a.logger.Debug("Metrics written.", "path", path)
	return nil
}
