package hcl

import (
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// ExprVariables are the variables a rule value expression may reference.
var ExprVariables = []string{"children", "context"}

// TraversalString renders a traversal the way it is written, e.g.
// `context.user[0]`.
func TraversalString(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// ExprRefs returns the traversals an expression reads that are rooted outside
// ExprVariables, and the names of every function it calls. Both are sorted
// and free of duplicates.
func ExprRefs(expr hcl.Expression) (unknownVars, functions []string) {
	if expr == nil {
		return nil, nil
	}
	for _, t := range expr.Variables() {
		if !slices.Contains(ExprVariables, t.RootName()) {
			unknownVars = append(unknownVars, TraversalString(t))
		}
	}

	if syntax, ok := expr.(hclsyntax.Expression); ok {
		hclsyntax.VisitAll(syntax, func(n hclsyntax.Node) hcl.Diagnostics {
			if call, ok := n.(*hclsyntax.FunctionCallExpr); ok {
				functions = append(functions, call.Name)
			}
			return nil
		})
	}

	slices.Sort(unknownVars)
	slices.Sort(functions)
	return slices.Compact(unknownVars), slices.Compact(functions)
}
