package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/grammar"
)

// Model is the unified, format-agnostic representation of a grammar
// definition, merged from every loaded file.
type Model struct {
	Generation *Generation
	Symbols    []string
	Contexts   []string
	Functions  []string
	Rules      []*Rule
	Constants  []*Constants
	// Pools are the constant values available per token, in declaration
	// order.
	Pools map[string][]*PoolValue
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Generation: &Generation{},
		Pools:      make(map[string][]*PoolValue),
	}
}

// Generation holds the generation parameters declared in a grammar file.
// Zero values mean "not set".
type Generation struct {
	Root              string
	MaxDepth          int
	TargetPruningSize int
	MaxConstants      int
	Contextual        bool
	Seed              uint64
	Pass              string
}

// Rule is the format-agnostic representation of a `rule` block.
type Rule struct {
	Symbol    string
	Expansion []grammar.Element
	// Combiner names a registered combiner; empty when Value is set.
	Combiner string
	// Value is a semantic expression over `children` and `context`.
	Value  hcl.Expression
	Weight *float64
	Repeat bool
	// Source locates the block for error messages.
	Source string
}

// Constants is the format-agnostic representation of a `constants` block:
// Symbol consumes the constant Token of the given Type.
type Constants struct {
	Symbol string
	Token  string
	Type   string
	Weight *float64
	Source string
}

// PoolValue is one constant of a `constant_pool` block.
type PoolValue struct {
	Display string
	Value   cty.Value
}
