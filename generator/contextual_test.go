package generator

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
)

// newGreeter builds a contextual grammar:
//
//	root -> $ctx_greet "hello" $name
//	root -> $ctx_bye "goodbye"
//	name -> "alice" | "bob"
func newGreeter(t *testing.T, opts Options) *Generator {
	t.Helper()
	opts.Contextual = true
	if opts.MaxDepth == 0 {
		opts.MaxDepth = 2
	}
	if opts.TargetPruningSize == 0 {
		opts.TargetPruningSize = 10
	}
	if opts.ContextInitializer == nil {
		opts.ContextInitializer = tagInitializer(map[string]string{"bye": "ctx_bye"}, "ctx_greet")
	}
	g := newTestGenerator(t, opts)
	require.NoError(t, g.DeclareContext("ctx_greet"))
	require.NoError(t, g.DeclareContext("ctx_bye"))
	require.NoError(t, g.AddRule("root",
		[]grammar.Element{grammar.Ref("ctx_greet"), grammar.Terminal("hello"), grammar.Ref("name")},
		grammar.Build(func(c []*derivation.Derivation) (*derivation.Derivation, error) {
			v := fmt.Sprintf("%v:%v", c[0].Value(), c[2].Value())
			return derivation.New(v, derivation.ConcatTokens(c), nil), nil
		}), grammar.Attrs{}))
	require.NoError(t, g.AddRule("root",
		[]grammar.Element{grammar.Ref("ctx_bye"), grammar.Terminal("goodbye")}, pass0, grammar.Attrs{}))
	require.NoError(t, g.AddRule("name", grammar.Terminals("alice"), pass0, grammar.Attrs{}))
	require.NoError(t, g.AddRule("name", grammar.Terminals("bob"), pass0, grammar.Attrs{}))
	return g
}

func TestGenerate_Contextual(t *testing.T) {
	g := newGreeter(t, Options{})

	var got []output
	err := g.Generate(context.Background(), []any{"u1"}, func(depth int, d *derivation.Derivation) error {
		require.NotNil(t, d.Context())
		assert.Equal(t, "u1", d.Context().Input())
		got = append(got, output{Depth: depth, Text: d.String(), Value: d.Value()})
		return nil
	})
	require.NoError(t, err)
	sortOutputs(got)

	want := []output{
		{Depth: 1, Text: "hello alice", Value: "u1:alice"},
		{Depth: 1, Text: "hello bob", Value: "u1:bob"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	root := g.Root()
	assert.True(t, root.Rules[0].Enabled)
	assert.False(t, root.Rules[1].Enabled, "rule gated on an empty context stays enabled")
}

func TestGenerate_EmptyContextsProduceNothing(t *testing.T) {
	g := newGreeter(t, Options{})

	out := collect(t, g, nil)
	assert.Empty(t, out)
	for _, r := range g.Root().Rules {
		assert.False(t, r.Enabled)
	}

	// enablement is recomputed on every pass
	out = collect(t, g, []any{"bye"})
	assert.Equal(t, []string{"goodbye"}, texts(out))
	assert.False(t, g.Root().Rules[0].Enabled)
	assert.True(t, g.Root().Rules[1].Enabled)
}

func TestGenerate_ContextCompatibility(t *testing.T) {
	build := func(key func(any) any) *Generator {
		g := newTestGenerator(t, Options{
			MaxDepth:           2,
			TargetPruningSize:  10,
			Contextual:         true,
			ContextInitializer: tagInitializer(nil, "ctx_user"),
			ContextKey:         key,
		})
		require.NoError(t, g.DeclareContext("ctx_user"))
		require.NoError(t, g.AddRule("root",
			[]grammar.Element{grammar.Ref("ctx_user"), grammar.Terminal("says"), grammar.Ref("who")},
			grammar.Build(func(c []*derivation.Derivation) (*derivation.Derivation, error) {
				v := fmt.Sprintf("%v/%v", c[0].Value(), c[2].Value())
				return derivation.New(v, derivation.ConcatTokens(c), nil), nil
			}), grammar.Attrs{}))
		require.NoError(t, g.AddRule("who",
			[]grammar.Element{grammar.Ref("ctx_user"), grammar.Terminal("user")}, pass0, grammar.Attrs{}))
		return g
	}

	values := func(out []output) []string {
		var vs []string
		for _, o := range out {
			vs = append(vs, o.Value.(string))
		}
		return vs
	}

	t.Run("identity", func(t *testing.T) {
		out := collect(t, build(nil), []any{"u1", "u2"})
		assert.ElementsMatch(t, []string{"u1/u1", "u2/u2"}, values(out))
		for _, o := range out {
			assert.Equal(t, 2, o.Depth)
		}
	})

	t.Run("shared key", func(t *testing.T) {
		out := collect(t, build(func(any) any { return "same" }), []any{"u1", "u2"})
		assert.ElementsMatch(t, []string{"u1/u1", "u1/u2", "u2/u1", "u2/u2"}, values(out))
	})
}

func TestGenerate_SharesContextFreeCharts(t *testing.T) {
	rec := newRecorder()
	g := newGreeter(t, Options{Observer: rec})

	collect(t, g, []any{"u1"})
	first := len(rec.statsFor("name"))
	require.Positive(t, first)

	out := collect(t, g, []any{"u2"})
	assert.Len(t, out, 2)
	assert.Len(t, rec.statsFor("name"), first, "context-free symbol was expanded again")

	g.ResetCache()
	collect(t, g, []any{"u3"})
	assert.Greater(t, len(rec.statsFor("name")), first)
}

func TestGenerateOne(t *testing.T) {
	t.Run("requires contextual mode", func(t *testing.T) {
		g := newTestGenerator(t, Options{})
		require.NoError(t, g.AddRule("root", grammar.Terminals("a"), pass0, grammar.Attrs{}))
		_, err := g.GenerateOne(context.Background(), "x")
		require.ErrorIs(t, err, ErrNotContextual)
	})

	t.Run("one derivation per input", func(t *testing.T) {
		g := newGreeter(t, Options{})
		// the root keeps a single derivation, so sub-sampling may leave a
		// call empty; some call must succeed
		found := 0
		for range 30 {
			d, err := g.GenerateOne(context.Background(), "u1")
			require.NoError(t, err)
			if d == nil {
				continue
			}
			found++
			assert.Contains(t, []string{"hello alice", "hello bob"}, d.String())
			assert.Equal(t, "u1", d.Context().Input())
		}
		assert.Positive(t, found)

		d, err := g.GenerateOne(context.Background(), "bye")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "goodbye", d.String())
	})

	t.Run("rejected input", func(t *testing.T) {
		g := newGreeter(t, Options{})
		d, err := g.GenerateOne(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, d)
	})

	t.Run("restores enablement", func(t *testing.T) {
		g := newGreeter(t, Options{})
		collect(t, g, nil)
		before := g.EnabledState()

		_, err := g.GenerateOne(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, before, g.EnabledState())
	})
}

func TestGenerate_ContextualConstants(t *testing.T) {
	g := newTestGenerator(t, Options{
		MaxDepth:           2,
		TargetPruningSize:  10,
		Contextual:         true,
		ContextInitializer: tagInitializer(nil, "ctx"),
	})
	require.NoError(t, g.DeclareContext("ctx"))
	require.NoError(t, g.AddRule("root",
		[]grammar.Element{grammar.Ref("ctx"), grammar.Terminal("count"), grammar.Ref("num")},
		grammar.Select(2), grammar.Attrs{}))
	require.NoError(t, g.AddConstants("num", "NUMBER", "number", grammar.Attrs{}))

	num, ok := g.Lookup("num")
	require.True(t, ok)
	persistent := len(num.Rules)
	require.Equal(t, grammar.DefaultMaxConstants, persistent)

	out := collect(t, g, []any{"u1"}, WithConstants(map[string][]grammar.Constant{
		"NUMBER": {{Display: []string{"forty", "two"}, Value: 42}},
	}))
	assert.Equal(t, []output{{Depth: 1, Text: "count forty two", Value: 42}}, out)
	assert.Len(t, num.Rules, persistent)
	for _, r := range num.Rules {
		assert.False(t, r.Enabled, "persistent constant rule enabled in contextual mode")
	}
}
