package generator

import (
	"context"
	"log/slog"
	"math"
	"slices"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/reservoir"
)

const (
	// growthDepth is the last depth at which chart capacity doubles.
	growthDepth = 3
	// growthDecay shrinks chart capacity past growthDepth.
	growthDecay = 0.8
)

// chartCapacity is max(1, round(target * growth(depth))), where growth
// doubles up to growthDepth and then decays.
func chartCapacity(target, depth int) int {
	g := 1.0
	for d := 1; d <= depth; d++ {
		if d <= growthDepth {
			g *= 2
		} else {
			g *= growthDecay
		}
	}
	return max(1, int(math.Round(float64(target)*g)))
}

// pass is the state of one generation call.
type pass struct {
	g      *Generator
	ctx    context.Context
	logger *slog.Logger
	sink   Sink

	// rootCap overrides the root chart capacity when positive.
	rootCap int
	// reuse is set when context-independent cells come from the cache.
	reuse bool

	// contexts holds the context derivations of each context non-terminal;
	// nil in non-contextual mode.
	contexts [][]*derivation.Derivation
	// charts is indexed [depth][non-terminal].
	charts [][]*cell

	steps int
}

func (p *pass) run(inputs []any, c call) error {
	g := p.g
	defer func() {
		if n := g.PurgeTemporary(); n > 0 {
			p.logger.Debug("Purged temporary rules.", "count", n)
		}
	}()

	for _, tok := range sortedKeys(c.constants) {
		n := g.InjectConstants(tok, c.constants[tok])
		p.logger.Debug("Injected constants.", "token", tok, "rules", n)
	}

	nts := g.NonTerminals()
	if g.opts.Contextual {
		p.seedContexts(inputs)
		p.eliminateUnreachable()
	}

	maxDepth := g.opts.MaxDepth
	root := g.Root()
	p.charts = make([][]*cell, maxDepth+1)
	for depth := 0; depth <= maxDepth; depth++ {
		row := make([]*cell, len(nts))
		p.charts[depth] = row
		capacity := chartCapacity(g.opts.TargetPruningSize, depth)
		for i, nt := range nts {
			switch {
			case p.reuse && !nt.HasContext:
				row[i] = g.cache[depth][i]
			case i == root.Index && p.rootCap > 0:
				row[i] = reservoir.New[*derivation.Derivation](p.rootCap, g.rng)
			default:
				row[i] = reservoir.New[*derivation.Derivation](capacity, g.rng)
			}
		}

		for _, nt := range nts {
			if nt.IsContext || (p.reuse && !nt.HasContext) {
				continue
			}
			// too far from the root to contribute within the remaining depth
			if nt.MinDistance > maxDepth-depth {
				continue
			}
			for _, r := range nt.Rules {
				if !r.Enabled {
					continue
				}
				if err := p.ctx.Err(); err != nil {
					return err
				}
				if err := p.expand(depth, nt, r, row[nt.Index]); err != nil {
					return err
				}
			}
		}

		emitted, err := p.drain(depth, row[root.Index])
		if err != nil {
			return err
		}
		if g.opts.Debug >= 1 {
			p.logger.Debug("Depth complete.", "depth", depth, "capacity", capacity, "emitted", emitted)
		}
	}

	if g.opts.Contextual && !p.reuse {
		g.cache = make([][]*cell, len(p.charts))
		for d, row := range p.charts {
			g.cache[d] = make([]*cell, len(row))
			for i, nt := range nts {
				if !nt.HasContext {
					g.cache[d][i] = row[i]
				}
			}
		}
	}
	return nil
}

// drain hands the root cell to the sink and empties it, so delivered
// derivations never recombine at deeper levels.
func (p *pass) drain(depth int, root *cell) (int, error) {
	emitted := 0
	for _, d := range root.Items() {
		if p.sink != nil {
			if err := p.sink(depth, d); err != nil {
				return emitted, err
			}
		}
		emitted++
		p.g.progress.Add(1)
		p.g.opts.Observer.DerivationEmitted(depth)
	}
	root.Reset()
	return emitted, nil
}

// seedContexts runs the initializer over inputs and files each resulting
// context under every tag it carries. One context object is shared by all
// its tags.
func (p *pass) seedContexts(inputs []any) {
	g := p.g
	p.contexts = make([][]*derivation.Derivation, len(g.NonTerminals()))
	for _, in := range inputs {
		tags, info, ok := g.opts.ContextInitializer(in, g.Functions())
		if !ok {
			continue
		}
		var key any
		if g.opts.ContextKey != nil {
			key = g.opts.ContextKey(in)
		}
		d := derivation.FromContext(derivation.NewContext(in, tags, info, key))
		for _, tag := range tags {
			idx, ok := g.Context(tag)
			if !ok {
				p.logger.Debug("Ignoring unknown context tag.", "tag", tag)
				continue
			}
			p.contexts[idx] = append(p.contexts[idx], d)
		}
	}
}

// eliminateUnreachable disables rules of context-dependent non-terminals that
// cannot be reached from the root given the contexts of this pass. A rule
// gated on an empty context is dead, and so is everything only it reaches.
// Persistent constant rules are disabled as well; constants arrive per call.
func (p *pass) eliminateUnreachable() {
	g := p.g
	nts := g.NonTerminals()
	live := func(r *grammar.Rule) bool {
		if r.ForConstant && !r.Temporary {
			return false
		}
		gate := g.ContextGate(r)
		return gate < 0 || len(p.contexts[gate]) > 0
	}

	reach := make([]bool, len(nts))
	reach[g.Root().Index] = true
	for changed := true; changed; {
		changed = false
		for i, nt := range nts {
			if !reach[i] {
				continue
			}
			for _, r := range nt.Rules {
				if !live(r) {
					continue
				}
				for _, e := range r.Expansion {
					if e.Kind == grammar.KindNonTerminal && !reach[e.Index] {
						reach[e.Index] = true
						changed = true
					}
				}
			}
		}
	}

	disabled := 0
	for i, nt := range nts {
		for _, r := range nt.Rules {
			// context-independent cells are cached for later contexts, so
			// reachability in this pass does not apply to them
			enabled := live(r) && (!nt.HasContext || reach[i])
			if !enabled {
				disabled++
			}
			r.Enabled = enabled
		}
	}
	if g.opts.Debug >= 1 {
		p.logger.Debug("Eliminated unreachable rules.", "disabled", disabled)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
