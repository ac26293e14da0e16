package testutil

import (
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/sentgrid/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single combiner or function.
type SimpleModule struct {
	CombinerName string
	Combiner     registry.CombinerFactory

	FunctionName string
	Function     function.Function
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.CombinerName != "" && m.Combiner != nil {
		r.RegisterCombiner(m.CombinerName, m.Combiner)
	}
	if m.FunctionName != "" {
		r.RegisterFunction(m.FunctionName, m.Function)
	}
}
