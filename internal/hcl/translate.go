// This file contains the logic for translating decoded HCL blocks into the
// format-agnostic grammar model defined in the config package.

package hcl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
)

// translateFile appends the contents of one decoded file to model.
func translateFile(ctx context.Context, f *file, model *config.Model) error {
	for _, g := range f.Generation {
		translateGeneration(g, model.Generation)
	}
	for _, s := range f.Symbols {
		model.Symbols = append(model.Symbols, s.Name)
	}
	for _, c := range f.Contexts {
		model.Contexts = append(model.Contexts, c.Name)
	}
	for _, fn := range f.Functions {
		model.Functions = append(model.Functions, fn.Name)
	}

	var errs []error
	for _, r := range f.Rules {
		rule, err := translateRule(r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		model.Rules = append(model.Rules, rule)
	}
	for _, c := range f.Constants {
		if err := checkWeight(c.Weight); err != nil {
			errs = append(errs, fmt.Errorf("constants %q for %s: %w", c.Token, c.Symbol, err))
			continue
		}
		model.Constants = append(model.Constants, &config.Constants{
			Symbol: c.Symbol,
			Token:  c.Token,
			Type:   c.Type,
			Weight: c.Weight,
		})
	}
	for _, p := range f.Pools {
		values, err := translatePool(ctx, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		model.Pools[p.Token] = append(model.Pools[p.Token], values...)
	}
	return errors.Join(errs...)
}

func translateGeneration(g *generationBlock, out *config.Generation) {
	out.Root = deref(g.Root, out.Root)
	out.MaxDepth = deref(g.MaxDepth, out.MaxDepth)
	out.TargetPruningSize = deref(g.TargetPruningSize, out.TargetPruningSize)
	out.MaxConstants = deref(g.MaxConstants, out.MaxConstants)
	out.Contextual = deref(g.Contextual, out.Contextual)
	out.Seed = deref(g.Seed, out.Seed)
	out.Pass = deref(g.Pass, out.Pass)
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// translateRule converts a rule block. The expansion must be a static list
// whose items are strings ("$name" references a symbol, "$$x" is the
// literal "$x") or nested lists of strings, which become choices.
func translateRule(r *ruleBlock) (*config.Rule, error) {
	source := r.Expansion.Range().String()
	expansion, err := translateExpansion(r.Expansion)
	if err != nil {
		return nil, fmt.Errorf("rule %q at %s: %w", r.Symbol, source, err)
	}
	if err := checkWeight(r.Weight); err != nil {
		return nil, fmt.Errorf("rule %q at %s: %w", r.Symbol, source, err)
	}

	rule := &config.Rule{
		Symbol:    r.Symbol,
		Expansion: expansion,
		Combiner:  deref(r.Combiner, ""),
		Weight:    r.Weight,
		Repeat:    deref(r.Repeat, false),
		Source:    source,
	}
	if !isNullExpr(r.Value) {
		rule.Value = r.Value
	}
	switch {
	case rule.Value != nil && rule.Combiner != "":
		return nil, fmt.Errorf("rule %q at %s: combiner and value are mutually exclusive", r.Symbol, source)
	case rule.Value == nil && rule.Combiner == "":
		rule.Combiner = "tokens"
	}
	return rule, nil
}

// checkWeight rejects an explicit weight that is not positive. An absent
// weight defaults to 1 later.
func checkWeight(w *float64) error {
	if w != nil && !(*w > 0) {
		return fmt.Errorf("%w, got %v", grammar.ErrInvalidWeight, *w)
	}
	return nil
}

func translateExpansion(expr hcl.Expression) ([]grammar.Element, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("expansion must be a static list: %w", diags)
	}
	if val.IsNull() || !val.CanIterateElements() || val.Type().IsMapType() || val.Type().IsObjectType() {
		return nil, fmt.Errorf("expansion must be a list, got %s", val.Type().FriendlyName())
	}

	var out []grammar.Element
	for it := val.ElementIterator(); it.Next(); {
		_, item := it.Element()
		switch {
		case item.Type() == cty.String && !item.IsNull():
			out = append(out, parseToken(item.AsString()))
		case item.CanIterateElements() && (item.Type().IsTupleType() || item.Type().IsListType()):
			choices, err := stringList(item)
			if err != nil {
				return nil, err
			}
			out = append(out, grammar.Choice(choices...))
		default:
			return nil, fmt.Errorf("unsupported expansion item of type %s", item.Type().FriendlyName())
		}
	}
	if len(out) == 0 {
		return nil, errors.New("expansion must not be empty")
	}
	return out, nil
}

func parseToken(s string) grammar.Element {
	switch {
	case strings.HasPrefix(s, "$$"):
		return grammar.Terminal(s[1:])
	case strings.HasPrefix(s, "$") && len(s) > 1:
		return grammar.Ref(s[1:])
	}
	return grammar.Terminal(s)
}

func stringList(v cty.Value) ([]string, error) {
	if v.LengthInt() == 0 {
		return nil, errors.New("choice must list at least one token")
	}
	var out []string
	for it := v.ElementIterator(); it.Next(); {
		_, item := it.Element()
		s, err := convert.Convert(item, cty.String)
		if err != nil || s.IsNull() {
			return nil, fmt.Errorf("choice items must be strings, got %s", item.Type().FriendlyName())
		}
		out = append(out, s.AsString())
	}
	return out, nil
}

// translatePool evaluates a constant_pool block, converting every value to
// the declared type when one is given.
func translatePool(ctx context.Context, p *poolBlock) ([]*config.PoolValue, error) {
	ty, err := poolType(ctx, p.Token, p.Type)
	if err != nil {
		return nil, fmt.Errorf("constant_pool %q: %w", p.Token, err)
	}
	val, diags := p.Values.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("constant_pool %q: values must be static: %w", p.Token, diags)
	}
	if val.IsNull() || !val.CanIterateElements() {
		return nil, fmt.Errorf("constant_pool %q: values must be a list", p.Token)
	}

	var out []*config.PoolValue
	for it := val.ElementIterator(); it.Next(); {
		idx, item := it.Element()
		if !item.Type().IsObjectType() || !item.Type().HasAttribute("display") || !item.Type().HasAttribute("value") {
			return nil, fmt.Errorf("constant_pool %q: item %s must be an object with display and value", p.Token, idx.GoString())
		}
		display, err := convert.Convert(item.GetAttr("display"), cty.String)
		if err != nil || display.IsNull() {
			return nil, fmt.Errorf("constant_pool %q: display of item %s must be a string", p.Token, idx.GoString())
		}
		value := item.GetAttr("value")
		if ty != cty.DynamicPseudoType {
			if value, err = convert.Convert(value, ty); err != nil {
				return nil, fmt.Errorf("constant_pool %q: cannot convert item %s to %s: %w", p.Token, idx.GoString(), ty.FriendlyName(), err)
			}
		}
		out = append(out, &config.PoolValue{Display: display.AsString(), Value: value})
	}
	return out, nil
}

// isNullExpr reports whether expr is absent or a literal null. gohcl fills
// missing optional expressions with a static null.
func isNullExpr(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}
