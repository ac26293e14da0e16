package registry

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
)

// Module is the interface that all modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// CombinerFactory builds the combiner for one rule from its expansion.
type CombinerFactory func(expansion []grammar.Element, conv config.Converter) (grammar.Combiner, error)

// Registry holds the combiners and functions available to grammar files for
// a single application instance.
type Registry struct {
	Combiners map[string]CombinerFactory
	Functions map[string]function.Function
}

// New creates and initializes an empty Registry.
func New(modules ...Module) *Registry {
	r := &Registry{
		Combiners: make(map[string]CombinerFactory),
		Functions: make(map[string]function.Function),
	}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterCombiner registers a named combiner. Registering a name twice is a
// programmer error and panics.
func (r *Registry) RegisterCombiner(name string, factory CombinerFactory) {
	if _, exists := r.Combiners[name]; exists {
		panic(fmt.Sprintf("combiner with name '%s' already registered", name))
	}
	slog.Debug("Registering combiner.", "name", name)
	r.Combiners[name] = factory
}

// RegisterFunction registers a function callable from value expressions and
// declarable with a `function` block.
func (r *Registry) RegisterFunction(name string, fn function.Function) {
	if _, exists := r.Functions[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	slog.Debug("Registering function.", "name", name)
	r.Functions[name] = fn
}

// Combiner builds the named combiner for expansion.
func (r *Registry) Combiner(name string, expansion []grammar.Element, conv config.Converter) (grammar.Combiner, error) {
	factory, ok := r.Combiners[name]
	if !ok {
		return nil, fmt.Errorf("unknown combiner %q", name)
	}
	return factory(expansion, conv)
}

// FunctionNames returns the registered function names, sorted.
func (r *Registry) FunctionNames() []string {
	names := make([]string, 0, len(r.Functions))
	for name := range r.Functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
