// Package core registers the built-in combiners every grammar file can name.
package core

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the combiners with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCombiner("tokens", Tokens)
	r.RegisterCombiner("pass", Pass)
	r.RegisterCombiner("list", List)
}

// Tokens uses the surface text of the expansion as its value.
func Tokens([]grammar.Element, config.Converter) (grammar.Combiner, error) {
	return grammar.Build(func(children []*derivation.Derivation) (*derivation.Derivation, error) {
		toks := derivation.ConcatTokens(children)
		return derivation.New(cty.StringVal(toks.String()), toks, nil), nil
	}), nil
}

// Pass forwards the value of the only symbol in the expansion, or of the
// first element when there is not exactly one.
func Pass(expansion []grammar.Element, _ config.Converter) (grammar.Combiner, error) {
	refs := symbolPositions(expansion)
	if len(refs) == 1 {
		return grammar.Select(refs[0]), nil
	}
	return grammar.Select(0), nil
}

// List collects the values of every symbol in the expansion into a tuple.
func List(expansion []grammar.Element, conv config.Converter) (grammar.Combiner, error) {
	if conv == nil {
		return nil, fmt.Errorf("list combiner requires a converter")
	}
	refs := symbolPositions(expansion)
	return grammar.Build(func(children []*derivation.Derivation) (*derivation.Derivation, error) {
		vals := make([]cty.Value, len(refs))
		for i, pos := range refs {
			v, err := conv.ToCtyValue(children[pos].Value())
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		return derivation.New(cty.TupleVal(vals), derivation.ConcatTokens(children), nil), nil
	}), nil
}

func symbolPositions(expansion []grammar.Element) []int {
	var out []int
	for i, e := range expansion {
		if e.Kind == grammar.KindNonTerminal {
			out = append(out, i)
		}
	}
	return out
}
