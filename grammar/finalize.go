package grammar

import (
	"errors"
	"fmt"
)

// Finalize freezes the table. It is idempotent and irreversible: the first
// call runs the static analysis and records its error, later calls return
// nil. Steps, in order:
//
//  1. typecheck: resolve references, enforce context-first placement;
//  2. auto-repeat: a symbol with any repeating or weighted rule repeats all;
//  3. context dependency fixpoint (contextual grammars only);
//  4. minimum distance from the root by breadth-first search.
func (t *Table) Finalize() error {
	if t.finalized {
		return nil
	}
	t.finalized = true
	t.finalizeErr = t.finalize()
	if t.finalizeErr != nil {
		t.opts.Logger.Debug("Grammar finalization failed.", "error", t.finalizeErr)
		return t.finalizeErr
	}
	t.opts.Logger.Debug("Grammar finalized.",
		"non_terminals", len(t.nonTerminals),
		"contexts", len(t.contexts),
		"functions", len(t.functions),
	)
	return nil
}

func (t *Table) finalize() error {
	root, ok := t.symbols[t.opts.RootSymbol]
	if !ok || t.nonTerminals[root].IsContext {
		return newTypeError(t.opts.RootSymbol, -1, ErrUnknownRoot, "")
	}
	t.root = root

	if err := t.typecheck(); err != nil {
		return err
	}
	t.propagateRepeat()
	if t.opts.Contextual {
		if err := t.computeContextDependency(); err != nil {
			return err
		}
	}
	t.computeMinDistance()
	return nil
}

// typecheck resolves every reference and collects all violations.
func (t *Table) typecheck() error {
	var errs []error
	for _, nt := range t.nonTerminals {
		for _, r := range nt.Rules {
			for i := range r.Expansion {
				el := &r.Expansion[i]
				if el.Kind != KindNonTerminal {
					continue
				}
				idx, ok := t.symbols[el.Symbol]
				if !ok {
					errs = append(errs, newTypeError(nt.Name, r.Number, ErrUndeclaredSymbol, "$"+el.Symbol))
					continue
				}
				el.Index = idx
				if !t.nonTerminals[idx].IsContext {
					continue
				}
				switch {
				case i != 0:
					errs = append(errs, newTypeError(nt.Name, r.Number, ErrContextPosition,
						fmt.Sprintf("$%s at position %d in %s", el.Symbol, i, ExpansionString(r.Expansion))))
				case len(r.Expansion) == 1:
					errs = append(errs, newTypeError(nt.Name, r.Number, ErrContextOnlyRule, "$"+el.Symbol))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func (t *Table) propagateRepeat() {
	for _, nt := range t.nonTerminals {
		repeat := false
		for _, r := range nt.Rules {
			if r.Repeat || r.Weight != 1 {
				repeat = true
				break
			}
		}
		if !repeat {
			continue
		}
		for _, r := range nt.Rules {
			r.Repeat = true
		}
	}
}

// contextGate returns the index of the context non-terminal a rule starts
// with, or -1.
func (t *Table) contextGate(r *Rule) int {
	if len(r.Expansion) == 0 {
		return -1
	}
	first := r.Expansion[0]
	if first.Kind != KindNonTerminal || first.Index < 0 || !t.nonTerminals[first.Index].IsContext {
		return -1
	}
	return first.Index
}

// ContextGate returns the index of the context non-terminal that gates r,
// or -1 when r has no context element.
func (t *Table) ContextGate(r *Rule) int { return t.contextGate(r) }

// computeContextDependency marks symbols that depend on context. The
// marking only grows, so iterating until nothing changes terminates.
// Constant consumers are seeded too, since their rules change per pass.
func (t *Table) computeContextDependency() error {
	for _, nt := range t.nonTerminals {
		nt.HasContext = nt.IsContext
	}
	for _, consumers := range t.constantConsumers {
		for _, idx := range consumers {
			t.nonTerminals[idx].HasContext = true
		}
	}

	ruleDepends := func(r *Rule) bool {
		if t.contextGate(r) >= 0 {
			return true
		}
		for _, el := range r.Expansion {
			if el.Kind == KindNonTerminal && t.nonTerminals[el.Index].HasContext {
				return true
			}
		}
		return false
	}

	for changed := true; changed; {
		changed = false
		for _, nt := range t.nonTerminals {
			if nt.HasContext {
				continue
			}
			for _, r := range nt.Rules {
				if ruleDepends(r) {
					nt.HasContext = true
					changed = true
					break
				}
			}
		}
	}
	for _, nt := range t.nonTerminals {
		for _, r := range nt.Rules {
			r.HasContext = ruleDepends(r)
		}
	}

	if !t.nonTerminals[t.root].HasContext {
		return newTypeError(t.opts.RootSymbol, -1, ErrRootWithoutContext, "")
	}
	return nil
}

// computeMinDistance runs a BFS over the rule-reference graph from the root
// and every context tag. Symbols farther than MaxDepth are Unreachable.
func (t *Table) computeMinDistance() {
	dist := make([]int, len(t.nonTerminals))
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, len(t.nonTerminals))
	enqueue := func(idx, d int) {
		if dist[idx] >= 0 {
			return
		}
		dist[idx] = d
		queue = append(queue, idx)
	}

	enqueue(t.root, 0)
	for _, idx := range t.contexts {
		enqueue(idx, 0)
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, r := range t.nonTerminals[u].Rules {
			for _, el := range r.Expansion {
				if el.Kind == KindNonTerminal {
					enqueue(el.Index, dist[u]+1)
				}
			}
		}
	}

	for i, nt := range t.nonTerminals {
		if dist[i] < 0 || dist[i] > t.opts.MaxDepth {
			nt.MinDistance = Unreachable
			continue
		}
		nt.MinDistance = dist[i]
	}
}
