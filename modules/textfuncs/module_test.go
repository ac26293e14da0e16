package textfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/internal/registry"
)

func TestRegister(t *testing.T) {
	r := registry.New(&Module{})
	assert.Len(t, r.Functions, len(Functions))

	v, err := r.Functions["upper"].Call([]cty.Value{cty.StringVal("abc")})
	require.NoError(t, err)
	assert.Equal(t, "ABC", v.AsString())

	v, err = r.Functions["join"].Call([]cty.Value{
		cty.StringVal("-"),
		cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
	})
	require.NoError(t, err)
	assert.Equal(t, "a-b", v.AsString())
}
