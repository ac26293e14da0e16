package hcl

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/tokens"
)

func combinerFor(t *testing.T, src string) func([]*derivation.Derivation) (*derivation.Derivation, error) {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	funcs := map[string]function.Function{"upper": stdlib.UpperFunc}
	return NewExprCombiner(expr, funcs, NewConverter()).Combine
}

func TestExprCombiner(t *testing.T) {
	children := []*derivation.Derivation{
		derivation.Terminal("hello"),
		derivation.New(cty.StringVal("alice"), tokens.Of("alice"), nil),
	}

	t.Run("children and functions", func(t *testing.T) {
		d, err := combinerFor(t, `"${children[0]}, ${upper(children[1])}"`)(children)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.True(t, d.Value().(cty.Value).RawEquals(cty.StringVal("hello, ALICE")))
		assert.Equal(t, "hello alice", d.String())
	})

	t.Run("null rejects", func(t *testing.T) {
		d, err := combinerFor(t, `children[1] == "alice" ? null : "x"`)(children)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("evaluation error aborts", func(t *testing.T) {
		_, err := combinerFor(t, `children[5]`)(children)
		require.Error(t, err)
	})

	t.Run("context info", func(t *testing.T) {
		c := derivation.NewContext("in", []string{"greet"}, map[string]any{"name": "bob"}, nil)
		withCtx := []*derivation.Derivation{derivation.FromContext(c), derivation.Terminal("hi")}
		d, err := combinerFor(t, `"${children[1]} ${context.name}"`)(withCtx)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "hi bob", d.Value().(cty.Value).AsString())
	})

	t.Run("no context is null", func(t *testing.T) {
		d, err := combinerFor(t, `context == null ? "none" : "some"`)(children)
		require.NoError(t, err)
		assert.Equal(t, "none", d.Value().(cty.Value).AsString())
	})
}

func TestConverter_ToCtyValue(t *testing.T) {
	conv := NewConverter()

	tests := []struct {
		name string
		in   any
		want cty.Value
	}{
		{name: "nil", in: nil, want: cty.NullVal(cty.DynamicPseudoType)},
		{name: "string", in: "x", want: cty.StringVal("x")},
		{name: "passthrough", in: cty.NumberIntVal(3), want: cty.NumberIntVal(3)},
		{name: "int", in: 3, want: cty.NumberIntVal(3)},
		{name: "bool", in: true, want: cty.True},
		{
			name: "string map",
			in:   map[string]string{"a": "b"},
			want: cty.MapVal(map[string]cty.Value{"a": cty.StringVal("b")}),
		},
		{
			name: "mixed map",
			in:   map[string]any{"name": "bob", "age": 3},
			want: cty.ObjectVal(map[string]cty.Value{"name": cty.StringVal("bob"), "age": cty.NumberIntVal(3)}),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := conv.ToCtyValue(tc.in)
			require.NoError(t, err)
			if tc.want.IsNull() {
				assert.True(t, got.IsNull())
				return
			}
			assert.True(t, tc.want.Equals(got).True(), "got %#v", got)
		})
	}

	_, err := conv.ToCtyValue(func() {})
	require.Error(t, err)
}
