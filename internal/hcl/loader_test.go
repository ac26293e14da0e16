package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/grammar"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoader_Load(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.hcl": `
generation {
  max_depth           = 4
  target_pruning_size = 50
  contextual          = true
  seed                = 7
}

context "ctx_greet" {}
function "upper" {}

rule "root" {
  expansion = ["$ctx_greet", "hello", "$name", ["!", "."]]
  value     = "${upper(children[2])}"
}
`,
		"b.hcl": `
symbol "name" {}

rule "name" {
  expansion = ["alice"]
  weight    = 2
  repeat    = true
}

rule "name" {
  expansion = ["$$bob"]
  combiner  = "pass"
}

constants "name" {
  token = "NAME"
  type  = "string"
}

constant_pool "NAME" {
  type   = string
  values = [
    { display = "carol", value = "carol" },
    { display = "dave",  value = 4 },
  ]
}
`,
	})

	model, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	g := model.Generation
	assert.Equal(t, 4, g.MaxDepth)
	assert.Equal(t, 50, g.TargetPruningSize)
	assert.True(t, g.Contextual)
	assert.Equal(t, uint64(7), g.Seed)

	assert.Equal(t, []string{"name"}, model.Symbols)
	assert.Equal(t, []string{"ctx_greet"}, model.Contexts)
	assert.Equal(t, []string{"upper"}, model.Functions)

	require.Len(t, model.Rules, 3)
	root := model.Rules[0]
	want := []grammar.Element{
		grammar.Ref("ctx_greet"),
		grammar.Terminal("hello"),
		grammar.Ref("name"),
		grammar.Choice("!", "."),
	}
	if diff := cmp.Diff(want, root.Expansion); diff != "" {
		t.Errorf("root expansion mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, root.Value)
	assert.Empty(t, root.Combiner)

	alice := model.Rules[1]
	assert.Equal(t, "tokens", alice.Combiner)
	require.NotNil(t, alice.Weight)
	assert.Equal(t, 2.0, *alice.Weight)
	assert.True(t, alice.Repeat)
	assert.Nil(t, alice.Value)

	bob := model.Rules[2]
	assert.Equal(t, "pass", bob.Combiner)
	assert.Equal(t, []grammar.Element{grammar.Terminal("$bob")}, bob.Expansion)

	require.Len(t, model.Constants, 1)
	assert.Equal(t, "NAME", model.Constants[0].Token)
	assert.Equal(t, "string", model.Constants[0].Type)

	pool := model.Pools["NAME"]
	require.Len(t, pool, 2)
	assert.Equal(t, "dave", pool[1].Display)
	assert.True(t, pool[1].Value.RawEquals(cty.StringVal("4")))
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name: "duplicate generation",
			files: map[string]string{
				"a.hcl": "generation {}\n",
				"b.hcl": "generation {}\n",
			},
			want: "duplicate generation block",
		},
		{
			name: "combiner and value",
			files: map[string]string{
				"a.hcl": `rule "root" {
  expansion = ["a"]
  combiner  = "tokens"
  value     = "x"
}
`,
			},
			want: "mutually exclusive",
		},
		{
			name: "empty expansion",
			files: map[string]string{
				"a.hcl": `rule "root" { expansion = [] }` + "\n",
			},
			want: "must not be empty",
		},
		{
			name: "non-list expansion",
			files: map[string]string{
				"a.hcl": `rule "root" { expansion = "a" }` + "\n",
			},
			want: "must be a list",
		},
		{
			name: "pool value of wrong type",
			files: map[string]string{
				"a.hcl": `constant_pool "N" {
  type   = number
  values = [{ display = "x", value = "not a number" }]
}
`,
			},
			want: "cannot convert",
		},
		{
			name: "zero rule weight",
			files: map[string]string{
				"a.hcl": `rule "root" {
  expansion = ["a"]
  weight    = 0
}
`,
			},
			want: "weight must be positive, got 0",
		},
		{
			name: "negative constants weight",
			files: map[string]string{
				"a.hcl": `constants "root" {
  token  = "N"
  type   = "number"
  weight = -2
}
`,
			},
			want: "weight must be positive, got -2",
		},
		{
			name: "syntax error",
			files: map[string]string{
				"a.hcl": `rule "root" {`,
			},
			want: "failed to parse",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeFiles(t, tc.files)
			_, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoader_NoFiles(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl grammar files")
}

func TestParseToken(t *testing.T) {
	assert.Equal(t, grammar.Ref("x"), parseToken("$x"))
	assert.Equal(t, grammar.Terminal("$x"), parseToken("$$x"))
	assert.Equal(t, grammar.Terminal("$"), parseToken("$"))
	assert.Equal(t, grammar.Terminal("x"), parseToken("x"))
}
