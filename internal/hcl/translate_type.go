package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/internal/ctxlog"
)

// poolPrimitives are the bare keywords accepted as a constant_pool type.
var poolPrimitives = map[string]cty.Type{
	"string": cty.String,
	"number": cty.Number,
	"bool":   cty.Bool,
	"any":    cty.DynamicPseudoType,
}

// poolCollections wrap a single element type, e.g. list(string).
var poolCollections = map[string]func(cty.Type) cty.Type{
	"list": cty.List,
	"map":  cty.Map,
	"set":  cty.Set,
}

// poolType resolves the `type` attribute of the constant_pool for token.
// Every pool value is converted to the result; cty.DynamicPseudoType keeps
// values as written. An absent attribute means any.
func poolType(ctx context.Context, token string, expr hcl.Expression) (cty.Type, error) {
	if isNullExpr(expr) {
		return cty.DynamicPseudoType, nil
	}
	ty, err := parsePoolType(expr)
	if err != nil {
		return cty.DynamicPseudoType, err
	}
	ctxlog.FromContext(ctx).Debug("Resolved constant pool type.", "token", token, "type", ty.FriendlyName())
	return ty, nil
}

func parsePoolType(expr hcl.Expression) (cty.Type, error) {
	switch v := expr.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("type %q must be a single keyword", TraversalString(v.Traversal))
		}
		name := v.Traversal.RootName()
		ty, ok := poolPrimitives[name]
		if !ok {
			return cty.DynamicPseudoType, fmt.Errorf("unknown constant type %q", name)
		}
		return ty, nil

	case *hclsyntax.FunctionCallExpr:
		wrap, ok := poolCollections[v.Name]
		if !ok {
			return cty.DynamicPseudoType, fmt.Errorf("unknown constant type constructor %q", v.Name)
		}
		if len(v.Args) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("%s() takes one element type, got %d", v.Name, len(v.Args))
		}
		elem, err := parsePoolType(v.Args[0])
		if err != nil {
			return cty.DynamicPseudoType, err
		}
		if elem == cty.DynamicPseudoType {
			return cty.DynamicPseudoType, fmt.Errorf("%s(any) is not a concrete constant type", v.Name)
		}
		return wrap(elem), nil
	}
	return cty.DynamicPseudoType, fmt.Errorf("constant type must be a keyword or constructor, got %T", expr)
}
