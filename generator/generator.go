package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/reservoir"
)

var tracer = otel.Tracer("sentgrid.generator")

// cell is one chart entry: the sampled derivations of one non-terminal at
// one depth.
type cell = reservoir.Sampler[*derivation.Derivation]

// Sink receives root derivations as they are produced. A non-nil error stops
// generation and is returned to the caller unchanged.
type Sink func(depth int, d *derivation.Derivation) error

// Generator owns a grammar table and produces derivations from it. The
// declaration methods of grammar.Table are available directly on the
// Generator until the first generation call finalizes the table.
type Generator struct {
	*grammar.Table

	opts Options
	rng  *rand.Rand

	// cache holds the chart cells of non-context non-terminals, indexed
	// [depth][non-terminal]; nil until the first contextual pass completes.
	cache [][]*cell

	progress atomic.Int64
	busy     atomic.Bool
}

// New returns a generator with an empty grammar.
func New(opts Options) (*Generator, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	table := grammar.New(grammar.Options{
		RootSymbol:   opts.RootSymbol,
		Contextual:   opts.Contextual,
		MaxDepth:     opts.MaxDepth,
		MaxConstants: opts.MaxConstants,
		Pass:         opts.Pass,
		Constants:    opts.Constants,
		Logger:       opts.Logger,
	})
	return &Generator{Table: table, opts: opts, rng: opts.Rand}, nil
}

// GeneratorOptions returns the generator options with defaults applied.
func (g *Generator) GeneratorOptions() Options { return g.opts }

// Progress returns the number of root derivations emitted by the current or
// last Generate call. It is safe to call from another goroutine.
func (g *Generator) Progress() int64 { return g.progress.Load() }

// ResetCache drops the shared chart cells of context-independent
// non-terminals; the next contextual pass recomputes them.
func (g *Generator) ResetCache() { g.cache = nil }

func (g *Generator) prepare() error {
	if !g.Finalized() {
		if err := g.Finalize(); err != nil {
			return err
		}
	}
	if err := g.Err(); err != nil {
		return fmt.Errorf("generator: grammar failed to finalize: %w", err)
	}
	return nil
}

// Generate runs one full pass and streams every root derivation to sink,
// depth by depth. In contextual mode inputs are turned into contexts with the
// ContextInitializer; otherwise they are ignored.
func (g *Generator) Generate(ctx context.Context, inputs []any, sink Sink, opts ...CallOption) (err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer g.busy.Store(false)
	if err := g.prepare(); err != nil {
		return err
	}

	g.SetAllEnabled(true)
	g.progress.Store(0)

	ctx, span := g.startSpan(ctx, "generator.Generate", len(inputs))
	defer func() { endSpan(span, g.progress.Load(), err) }()

	p := g.newPass(ctx, sink, 0)
	return p.run(inputs, newCall(opts))
}

// GenerateOne returns one derivation for a single input, or nil when none
// could be produced. It only works in contextual mode. Rule enablement is
// restored afterward so batch generation is unaffected.
func (g *Generator) GenerateOne(ctx context.Context, input any, opts ...CallOption) (_ *derivation.Derivation, err error) {
	if !g.opts.Contextual {
		return nil, ErrNotContextual
	}
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer g.busy.Store(false)
	if err := g.prepare(); err != nil {
		return nil, err
	}

	state := g.EnabledState()
	defer g.RestoreEnabled(state)
	g.SetAllEnabled(true)

	ctx, span := g.startSpan(ctx, "generator.GenerateOne", 1)
	out := reservoir.New[*derivation.Derivation](1, g.rng)
	defer func() { endSpan(span, int64(out.Len()), err) }()

	p := g.newPass(ctx, func(_ int, d *derivation.Derivation) error {
		out.Add(d)
		return nil
	}, 1)
	if err := p.run([]any{input}, newCall(opts)); err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return nil, nil
	}
	return out.At(0), nil
}

func (g *Generator) newPass(ctx context.Context, sink Sink, rootCap int) *pass {
	session := uuid.NewString()
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("generator.session", session))
	return &pass{
		g:       g,
		ctx:     ctx,
		logger:  g.opts.Logger.With(slog.String("session", session)),
		sink:    sink,
		rootCap: rootCap,
		reuse:   g.opts.Contextual && g.cache != nil,
	}
}

func newCall(opts []CallOption) call {
	var c call
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (g *Generator) startSpan(ctx context.Context, name string, inputs int) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.Int("generator.inputs", inputs),
			attribute.Int("generator.max_depth", g.opts.MaxDepth),
			attribute.Bool("generator.contextual", g.opts.Contextual),
		),
	)
}

func endSpan(span trace.Span, emitted int64, err error) {
	span.SetAttributes(attribute.Int64("generator.emitted", emitted))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
