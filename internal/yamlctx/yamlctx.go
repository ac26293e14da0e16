// Package yamlctx loads generation inputs from a YAML file: the context
// entries handed to a contextual grammar and the constants injected into
// every generation pass.
//
//	contexts:
//	  - tags: [ctx_start]
//	    key: alice
//	    info: {user: alice}
//	constants:
//	  NUMBER:
//	    - {display: "forty two", value: 42}
package yamlctx

import (
	"fmt"
	"os"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
)

// Entry is one context input.
type Entry struct {
	Tags []string `yaml:"tags"`
	// Key groups entries that may be combined in one derivation. Entries
	// without a key are only compatible with themselves.
	Key  string `yaml:"key"`
	Info any    `yaml:"info"`

	info cty.Value
}

// Value is one injected constant.
type Value struct {
	Display string `yaml:"display"`
	Value   any    `yaml:"value"`
}

// File is a decoded inputs file.
type File struct {
	Contexts  []*Entry           `yaml:"contexts"`
	Constants map[string][]Value `yaml:"constants"`

	constants map[string][]grammar.Constant
}

// Load reads and decodes path. Info payloads and constant values are
// converted with conv up front so malformed input fails before generation.
func Load(path string, conv config.Converter) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs file: %w", err)
	}
	f, err := Parse(data, conv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes an inputs document.
func Parse(data []byte, conv config.Converter) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	for i, e := range f.Contexts {
		if e == nil || len(e.Tags) == 0 {
			return nil, fmt.Errorf("context %d: at least one tag is required", i)
		}
		v, err := conv.ToCtyValue(e.Info)
		if err != nil {
			return nil, fmt.Errorf("context %d: info: %w", i, err)
		}
		e.info = v
	}

	f.constants = make(map[string][]grammar.Constant, len(f.Constants))
	for token, values := range f.Constants {
		for i, v := range values {
			display := strings.Fields(v.Display)
			if len(display) == 0 {
				return nil, fmt.Errorf("constant %s[%d]: display must not be empty", token, i)
			}
			val, err := conv.ToCtyValue(v.Value)
			if err != nil {
				return nil, fmt.Errorf("constant %s[%d]: %w", token, i, err)
			}
			f.constants[token] = append(f.constants[token], grammar.Constant{Display: display, Value: val})
		}
	}
	return &f, nil
}

// Inputs returns the context entries as generator inputs.
func (f *File) Inputs() []any {
	out := make([]any, len(f.Contexts))
	for i, e := range f.Contexts {
		out[i] = e
	}
	return out
}

// GrammarConstants returns the constants keyed by token, ready to be passed
// to generator.WithConstants.
func (f *File) GrammarConstants() map[string][]grammar.Constant {
	return f.constants
}

// Initializer is a generator.ContextInitializer for inputs produced by
// Inputs. The context info is the converted cty value.
func Initializer(input any, _ grammar.FunctionTable) ([]string, any, bool) {
	e, ok := input.(*Entry)
	if !ok || e == nil {
		return nil, nil, false
	}
	return e.Tags, e.info, true
}

// ContextKey is a generator context key function: entries sharing a
// non-empty key are compatible.
func ContextKey(input any) any {
	e, ok := input.(*Entry)
	if !ok || e == nil || e.Key == "" {
		return nil
	}
	return e.Key
}
