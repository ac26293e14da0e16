// Package env_vars lets value expressions read environment variables.
package env_vars

import (
	"os"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/sentgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// EnvFunc returns the value of an environment variable, or the fallback
// when it is unset.
var EnvFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "name", Type: cty.String},
		{Name: "fallback", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		if v, ok := os.LookupEnv(args[0].AsString()); ok {
			return cty.StringVal(v), nil
		}
		return args[1], nil
	},
})

// Register registers the function with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction("env", EnvFunc)
}
