package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
)

// NewExprCombiner compiles a rule's `value` expression into a combiner. The
// expression sees `children`, a tuple of the child values, and `context`,
// the info of the context the children agree on (null without one). A null
// or unknown result rejects the combination; an evaluation error aborts
// generation.
func NewExprCombiner(expr hcl.Expression, funcs map[string]function.Function, conv config.Converter) grammar.Combiner {
	return grammar.Build(func(children []*derivation.Derivation) (*derivation.Derivation, error) {
		vals := make([]cty.Value, len(children))
		var meet *derivation.Context
		for i, c := range children {
			v, err := conv.ToCtyValue(c.Value())
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			vals[i] = v
			if m, ok := derivation.Meet(meet, c.Context()); ok {
				meet = m
			}
		}

		ctxVal := cty.NullVal(cty.DynamicPseudoType)
		if meet != nil {
			v, err := conv.ToCtyValue(meet.Info())
			if err != nil {
				return nil, fmt.Errorf("context: %w", err)
			}
			ctxVal = v
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				"children": cty.TupleVal(vals),
				"context":  ctxVal,
			},
			Functions: funcs,
		}
		out, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		if out.IsNull() || !out.IsWhollyKnown() {
			return nil, nil
		}
		return derivation.New(out, derivation.ConcatTokens(children), nil), nil
	})
}
