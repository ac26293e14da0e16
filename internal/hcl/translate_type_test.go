package hcl

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestPoolType(t *testing.T) {
	tests := []struct {
		src     string
		want    cty.Type
		wantErr string
	}{
		{src: "string", want: cty.String},
		{src: "number", want: cty.Number},
		{src: "bool", want: cty.Bool},
		{src: "any", want: cty.DynamicPseudoType},
		{src: "list(string)", want: cty.List(cty.String)},
		{src: "map(number)", want: cty.Map(cty.Number)},
		{src: "set(bool)", want: cty.Set(cty.Bool)},
		{src: "null", want: cty.DynamicPseudoType},
		{src: "list(any)", wantErr: "list(any) is not a concrete constant type"},
		{src: "tuple(string)", wantErr: `unknown constant type constructor "tuple"`},
		{src: "float", wantErr: `unknown constant type "float"`},
		{src: "list(string, number)", wantErr: "list() takes one element type, got 2"},
		{src: "string.value", wantErr: `type "string.value" must be a single keyword`},
		{src: `"string"`, wantErr: "must be a keyword or constructor"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			expr, diags := hclsyntax.ParseExpression([]byte(tc.src), "test.hcl", hcl.InitialPos)
			require.False(t, diags.HasErrors(), diags.Error())

			got, err := poolType(context.Background(), "N", expr)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equals(got), "got %s", got.FriendlyName())
		})
	}
}
