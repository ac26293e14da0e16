// Package textfuncs exposes a curated set of go-cty standard library
// functions to rule value expressions.
package textfuncs

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/sentgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Functions are the functions this module registers.
var Functions = map[string]function.Function{
	"upper":     stdlib.UpperFunc,
	"lower":     stdlib.LowerFunc,
	"title":     stdlib.TitleFunc,
	"trimspace": stdlib.TrimSpaceFunc,
	"replace":   stdlib.ReplaceFunc,
	"split":     stdlib.SplitFunc,
	"join":      stdlib.JoinFunc,
	"format":    stdlib.FormatFunc,
	"concat":    stdlib.ConcatFunc,
	"length":    stdlib.LengthFunc,
	"element":   stdlib.ElementFunc,
	"coalesce":  stdlib.CoalesceFunc,
	"strlen":    stdlib.StrlenFunc,
	"add":       stdlib.AddFunc,
	"max":       stdlib.MaxFunc,
	"min":       stdlib.MinFunc,
}

// Register registers the functions with the registry.
func (m *Module) Register(r *registry.Registry) {
	for name, fn := range Functions {
		r.RegisterFunction(name, fn)
	}
}
