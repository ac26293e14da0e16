package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// file is the top-level structure of a grammar file.
type file struct {
	Generation []*generationBlock `hcl:"generation,block"`
	Symbols    []*namedBlock      `hcl:"symbol,block"`
	Contexts   []*namedBlock      `hcl:"context,block"`
	Functions  []*namedBlock      `hcl:"function,block"`
	Rules      []*ruleBlock       `hcl:"rule,block"`
	Constants  []*constantsBlock  `hcl:"constants,block"`
	Pools      []*poolBlock       `hcl:"constant_pool,block"`
}

// generationBlock holds the generation parameters. Every field is optional.
type generationBlock struct {
	Root              *string `hcl:"root,optional"`
	MaxDepth          *int    `hcl:"max_depth,optional"`
	TargetPruningSize *int    `hcl:"target_pruning_size,optional"`
	MaxConstants      *int    `hcl:"max_constants,optional"`
	Contextual        *bool   `hcl:"contextual,optional"`
	Seed              *uint64 `hcl:"seed,optional"`
	Pass              *string `hcl:"pass,optional"`
}

// namedBlock is a `symbol`, `context` or `function` declaration.
type namedBlock struct {
	Name string `hcl:"name,label"`
}

type ruleBlock struct {
	Symbol    string         `hcl:"symbol,label"`
	Expansion hcl.Expression `hcl:"expansion"`
	Combiner  *string        `hcl:"combiner,optional"`
	Value     hcl.Expression `hcl:"value,optional"`
	Weight    *float64       `hcl:"weight,optional"`
	Repeat    *bool          `hcl:"repeat,optional"`
}

type constantsBlock struct {
	Symbol string   `hcl:"symbol,label"`
	Token  string   `hcl:"token"`
	Type   string   `hcl:"type"`
	Weight *float64 `hcl:"weight,optional"`
}

type poolBlock struct {
	Token  string         `hcl:"token,label"`
	Type   hcl.Expression `hcl:"type,optional"`
	Values hcl.Expression `hcl:"values"`
}
