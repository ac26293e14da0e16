package grammar

import "math"

const (
	// MinPruneFactor keeps learned prune factors strictly positive.
	MinPruneFactor = 1e-6

	// pruneFactorMemory is the weight of the previous estimate in the
	// moving average.
	pruneFactorMemory = 0.01
)

// Attrs are the optional scheduling attributes of a rule.
type Attrs struct {
	// Weight is the relative sampling weight; nil means 1. An explicit
	// weight must be positive.
	Weight *float64
	// Repeat pads the rule's output to exactly its quota.
	Repeat bool
	// ForConstant marks a rule that emits a lexical constant.
	ForConstant bool
	// Temporary marks a rule injected for one generation pass.
	Temporary bool
}

// Weight returns a pointer to w, for Attrs.Weight.
func Weight(w float64) *float64 { return &w }

// Rule is one expansion alternative of a non-terminal.
type Rule struct {
	// Number is the rule's position in its non-terminal; it is stable for
	// the lifetime of the table.
	Number    int
	Expansion []Element
	Combiner  Combiner

	Weight      float64
	Repeat      bool
	ForConstant bool
	Temporary   bool

	// Enabled is toggled by the generator for context-based pruning.
	Enabled bool
	// HasContext is computed by Finalize.
	HasContext bool

	// PruneFactor is the learned ratio of accepted to attempted
	// combinations, always in (0, 1].
	PruneFactor float64
}

// HasNonTerminal reports whether any element references a symbol.
func (r *Rule) HasNonTerminal() bool {
	for _, e := range r.Expansion {
		if e.Kind == KindNonTerminal {
			return true
		}
	}
	return false
}

// UpdatePruneFactor folds one observed accept ratio into the estimate:
// new = (0.01*old + observed) / 1.01, clamped to [MinPruneFactor, 1].
// Ratios outside [0, 1] are clamped first.
func (r *Rule) UpdatePruneFactor(observed float64) float64 {
	if math.IsNaN(observed) {
		return r.PruneFactor
	}
	observed = math.Min(1, math.Max(0, observed))
	next := (pruneFactorMemory*r.PruneFactor + observed) / (1 + pruneFactorMemory)
	r.PruneFactor = math.Min(1, math.Max(MinPruneFactor, next))
	return r.PruneFactor
}

// NonTerminal is a grammar symbol together with its rules.
type NonTerminal struct {
	Index int
	Name  string
	Rules []*Rule

	// IsContext marks a context tag declared with DeclareContext.
	IsContext bool
	// HasContext is true when the symbol is a context tag or any of its
	// rules depends on context. Computed by Finalize.
	HasContext bool
	// MinDistance is the BFS distance from the root, or Unreachable.
	MinDistance int
}
