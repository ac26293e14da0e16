package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific grammar loader.
type Loader interface {
	// Load reads grammar definitions from the given paths and translates
	// them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Converter bridges native Go values produced by the generator (terminal
// strings, context payloads, constants) and the cty values used by grammar
// expressions and output encoding.
type Converter interface {
	// ToCtyValue converts a native Go value, or passes a cty.Value through.
	ToCtyValue(v any) (cty.Value, error)
}
