package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/internal/hcl"
	"github.com/vk/sentgrid/internal/registry"
	"github.com/vk/sentgrid/tokens"
)

func children() []*derivation.Derivation {
	return []*derivation.Derivation{
		derivation.Terminal("hello"),
		derivation.New(cty.StringVal("alice"), tokens.Of("alice"), nil),
		derivation.Terminal("!"),
	}
}

var expansion = []grammar.Element{grammar.Terminal("hello"), grammar.Ref("name"), grammar.Terminal("!")}

func TestRegister(t *testing.T) {
	r := registry.New(&Module{})
	for _, name := range []string{"tokens", "pass", "list"} {
		assert.Contains(t, r.Combiners, name)
	}
}

func TestTokens(t *testing.T) {
	c, err := Tokens(expansion, nil)
	require.NoError(t, err)
	d, err := c.Combine(children())
	require.NoError(t, err)
	assert.Equal(t, "hello alice !", d.String())
	assert.True(t, d.Value().(cty.Value).RawEquals(cty.StringVal("hello alice !")))
}

func TestPass(t *testing.T) {
	t.Run("single symbol", func(t *testing.T) {
		c, err := Pass(expansion, nil)
		require.NoError(t, err)
		assert.Equal(t, grammar.Select(1), c)
	})

	t.Run("no symbol", func(t *testing.T) {
		c, err := Pass(grammar.Terminals("a", "b"), nil)
		require.NoError(t, err)
		assert.Equal(t, grammar.Select(0), c)
	})
}

func TestList(t *testing.T) {
	_, err := List(expansion, nil)
	require.Error(t, err)

	exp := []grammar.Element{grammar.Ref("a"), grammar.Terminal("and"), grammar.Ref("b")}
	c, err := List(exp, hcl.NewConverter())
	require.NoError(t, err)

	d, err := c.Combine([]*derivation.Derivation{
		derivation.Terminal("x"),
		derivation.Terminal("and"),
		derivation.New(cty.NumberIntVal(2), tokens.Of("two"), nil),
	})
	require.NoError(t, err)
	want := cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.NumberIntVal(2)})
	assert.True(t, d.Value().(cty.Value).RawEquals(want))
	assert.Equal(t, "x and two", d.String())
}
