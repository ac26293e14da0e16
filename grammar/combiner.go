package grammar

import (
	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/tokens"
)

// Combiner is the semantic action of a rule. It maps the chosen children,
// one per expansion element, to a new Derivation.
//
// Returning (nil, nil) is a soft rejection: the combination is dropped and
// counted as pruned. A non-nil error aborts the generation call.
//
// The set of combiners is closed; the strategy is fixed when the rule is
// built instead of being branched on at every expansion.
type Combiner interface {
	Combine(children []*derivation.Derivation) (*derivation.Derivation, error)
	combiner()
}

// Constant emits a fixed lexical constant. It is the combiner of every
// ForConstant rule and ignores its children.
type Constant struct {
	Display []string
	Value   any
}

// Combine implements Combiner.
func (c Constant) Combine([]*derivation.Derivation) (*derivation.Derivation, error) {
	return derivation.New(c.Value, tokens.Of(c.Display...), nil), nil
}

func (Constant) combiner() {}

// Semantic computes the value from the children's values; the surface is the
// concatenation of the children's tokens. A nil value rejects.
type Semantic func(values []any) (any, error)

// Combine implements Combiner.
func (f Semantic) Combine(children []*derivation.Derivation) (*derivation.Derivation, error) {
	values := make([]any, len(children))
	for i, c := range children {
		values[i] = c.Value()
	}
	v, err := f(values)
	if err != nil || v == nil {
		return nil, err
	}
	return derivation.New(v, derivation.ConcatTokens(children), nil), nil
}

func (Semantic) combiner() {}

// Select passes through the value of the child at the given index (a
// replacement rule); the surface is the concatenation of all children.
// A nil selected value rejects.
type Select int

// Combine implements Combiner.
func (s Select) Combine(children []*derivation.Derivation) (*derivation.Derivation, error) {
	i := int(s)
	if i < 0 || i >= len(children) {
		return nil, nil
	}
	v := children[i].Value()
	if v == nil {
		return nil, nil
	}
	return derivation.New(v, derivation.ConcatTokens(children), nil), nil
}

func (Select) combiner() {}

// Build gives full control over the produced derivation, including its
// surface tokens.
type Build func(children []*derivation.Derivation) (*derivation.Derivation, error)

// Combine implements Combiner.
func (f Build) Combine(children []*derivation.Derivation) (*derivation.Derivation, error) {
	return f(children)
}

func (Build) combiner() {}
