package integration_tests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/config"
	"github.com/vk/sentgrid/internal/testutil"
	"github.com/vk/sentgrid/modules/core"
	"github.com/vk/sentgrid/tokens"
)

var shout = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "s", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(strings.ToUpper(args[0].AsString()) + "!"), nil
	},
})

// reverse emits the children's surface in reverse order.
func reverse([]grammar.Element, config.Converter) (grammar.Combiner, error) {
	return grammar.Build(func(children []*derivation.Derivation) (*derivation.Derivation, error) {
		var toks tokens.Seq
		for i := len(children) - 1; i >= 0; i-- {
			toks = tokens.Concat(toks, children[i].Tokens())
		}
		return derivation.New(cty.StringVal(toks.String()), toks, nil), nil
	}), nil
}

func TestCustomFunction(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `
function "shout" {}

rule "root" {
  expansion = ["hey", "$who"]
  value     = shout(children[1])
}
rule "who" { expansion = ["you"] }
`,
	}, nil,
		&core.Module{},
		&testutil.SimpleModule{FunctionName: "shout", Function: shout},
	)
	require.NoError(t, result.Err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, `"YOU!"`, string(result.Records[0].Value))
}

func TestCustomCombiner(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `
rule "root" {
  expansion = ["first", "$x", "last"]
  combiner  = "reverse"
}
rule "x" {
  expansion = ["middle"]
  combiner  = "tokens"
}
`,
	}, nil,
		&core.Module{},
		&testutil.SimpleModule{CombinerName: "reverse", Combiner: reverse},
	)
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"last middle first"}, testutil.Texts(result))
}

func TestExplicitModulesReplaceBuiltIns(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `rule "root" { expansion = ["a"] }`,
	}, nil, &testutil.SimpleModule{FunctionName: "noop", Function: shout})
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "combiner 'tokens' is not registered")
}
