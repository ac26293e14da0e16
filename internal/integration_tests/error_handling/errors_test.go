package integration_tests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/generator"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/testutil"
)

func TestStartupErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "invalid HCL",
			files: map[string]string{"grammar/main.hcl": `rule "root" {`},
			want:  "failed to parse HCL file",
		},
		{
			name: "unregistered combiner",
			files: map[string]string{"grammar/main.hcl": `
rule "root" {
  expansion = ["a"]
  combiner  = "nope"
}
`},
			want: "combiner 'nope' is not registered",
		},
		{
			name: "unregistered function",
			files: map[string]string{"grammar/main.hcl": `
function "missing" {}
rule "root" { expansion = ["a"] }
`},
			want: "function 'missing' is declared but not registered",
		},
		{
			name: "contextual without contexts",
			files: map[string]string{"grammar/main.hcl": `
generation { contextual = true }
context "c" {}
rule "root" { expansion = ["$c", "a"] }
`},
			want: "no contexts file",
		},
		{
			name:  "no grammar files",
			files: map[string]string{},
			want:  "no .hcl grammar files",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := testutil.RunIntegrationTest(t, tc.files, nil)
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.want)
			assert.Nil(t, result.App)
		})
	}
}

func TestUndeclaredSymbolFailsFinalize(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `rule "root" { expansion = ["hello", "$nobody"] }`,
	}, nil)
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, grammar.ErrUndeclaredSymbol), "got %v", result.Err)
}

func TestContextPlacementFailsFinalize(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `
generation { contextual = true }
context "c" {}
rule "root" { expansion = ["a", "$c"] }
`,
		testutil.ContextsFile: "contexts:\n  - tags: [c]\n",
	}, nil)
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, grammar.ErrContextPosition), "got %v", result.Err)
}

func TestExpressionErrorAbortsGeneration(t *testing.T) {
	t.Parallel()

	result := testutil.RunIntegrationTest(t, map[string]string{
		"grammar/main.hcl": `
rule "root" {
  expansion = ["hello", "$name"]
  value     = children[7]
}
rule "name" { expansion = ["alice"] }
`,
	}, nil)
	require.Error(t, result.Err)

	var expErr *generator.ExpansionError
	require.True(t, errors.As(result.Err, &expErr), "got %v", result.Err)
	assert.Equal(t, "root", expErr.NonTerminal)
	assert.Equal(t, 0, expErr.Rule)
	assert.Empty(t, result.Records)
}
