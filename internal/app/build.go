package app

import (
	"fmt"
	"strings"

	"github.com/vk/sentgrid/generator"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/hcl"
	"github.com/vk/sentgrid/internal/yamlctx"
)

// defaultMaxDepth applies when neither the grammar nor the CLI set a depth.
const defaultMaxDepth = 5

// options merges the grammar's generation block with CLI overrides.
func (a *App) options() generator.Options {
	gen := a.model.Generation
	opts := generator.Options{
		MaxDepth:          gen.MaxDepth,
		TargetPruningSize: gen.TargetPruningSize,
		MaxConstants:      gen.MaxConstants,
		Seed:              gen.Seed,
		Contextual:        gen.Contextual,
		RootSymbol:        gen.Root,
		Pass:              gen.Pass,
		Constants:         a.poolConstants(),
		Logger:            a.logger,
		Observer:          a.metrics,
	}
	if a.cfg.MaxDepth > 0 {
		opts.MaxDepth = a.cfg.MaxDepth
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	if a.cfg.TargetSize > 0 {
		opts.TargetPruningSize = a.cfg.TargetSize
	}
	if a.cfg.Seed > 0 {
		opts.Seed = a.cfg.Seed
	}
	if a.cfg.LogLevel == "debug" {
		opts.Debug = 1
	}
	if opts.Contextual {
		opts.ContextInitializer = yamlctx.Initializer
		opts.ContextKey = yamlctx.ContextKey
	}
	return opts
}

// poolConstants serves constant_pool values, falling back to the built-in
// constants for tokens without a pool.
func (a *App) poolConstants() grammar.ConstantProvider {
	pools := make(grammar.StaticConstants, len(a.model.Pools))
	for token, values := range a.model.Pools {
		for _, v := range values {
			pools[token] = append(pools[token], grammar.Constant{
				Display: strings.Fields(v.Display),
				Value:   v.Value,
			})
		}
	}
	return grammar.ConstantProviderFunc(func(token, typeSpec string) []grammar.Constant {
		if consts, ok := pools[token]; ok {
			return consts
		}
		return grammar.DefaultConstants.Constants(token, typeSpec)
	})
}

// newGenerator builds an independent generator for the loaded grammar. The
// shard number selects the random stream; shard 0 uses the configured seed.
func (a *App) newGenerator(shard int) (*generator.Generator, error) {
	opts := a.options()
	if shard > 0 {
		opts.Seed = generator.DeriveSeed(opts.Seed, uint64(shard))
	}
	g, err := generator.New(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid generation options: %w", err)
	}

	m := a.model
	for _, name := range m.Symbols {
		if err := g.DeclareSymbol(name); err != nil {
			return nil, err
		}
	}
	for _, name := range m.Contexts {
		if err := g.DeclareContext(name); err != nil {
			return nil, err
		}
	}
	for _, name := range m.Functions {
		if err := g.DeclareFunction(name, a.registry.Functions[name]); err != nil {
			return nil, err
		}
	}

	for _, r := range m.Rules {
		combiner, err := a.combiner(r)
		if err != nil {
			return nil, fmt.Errorf("rule %q at %s: %w", r.Symbol, r.Source, err)
		}
		attrs := grammar.Attrs{Weight: r.Weight, Repeat: r.Repeat}
		if err := g.AddRule(r.Symbol, r.Expansion, combiner, attrs); err != nil {
			return nil, fmt.Errorf("rule at %s: %w", r.Source, err)
		}
	}
	for _, c := range m.Constants {
		if err := g.AddConstants(c.Symbol, c.Token, c.Type, grammar.Attrs{Weight: c.Weight}); err != nil {
			return nil, err
		}
	}

	if err := g.Finalize(); err != nil {
		return nil, fmt.Errorf("grammar failed to finalize: %w", err)
	}
	a.logger.Debug("Generator built.", "shard", shard, "seed", opts.Seed, "rules", len(m.Rules))
	return g, nil
}

func (a *App) combiner(r *config.Rule) (grammar.Combiner, error) {
	if r.Value != nil {
		return hcl.NewExprCombiner(r.Value, a.registry.Functions, a.converter), nil
	}
	return a.registry.Combiner(r.Combiner, r.Expansion, a.converter)
}
