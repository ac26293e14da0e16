package generator

import (
	"context"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
)

var pass0 = grammar.Select(0)

func newTestGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	g, err := New(opts)
	require.NoError(t, err)
	return g
}

// output is one emitted root derivation.
type output struct {
	Depth int
	Text  string
	Value any
}

// collect runs Generate and returns its outputs sorted by depth and text.
func collect(t *testing.T, g *Generator, inputs []any, opts ...CallOption) []output {
	t.Helper()
	var out []output
	err := g.Generate(context.Background(), inputs, func(depth int, d *derivation.Derivation) error {
		out = append(out, output{Depth: depth, Text: d.String(), Value: d.Value()})
		return nil
	}, opts...)
	require.NoError(t, err)
	sortOutputs(out)
	return out
}

func sortOutputs(out []output) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Text < out[j].Text
	})
}

func texts(out []output) []string {
	s := make([]string, len(out))
	for i, o := range out {
		s[i] = o.Text
	}
	return s
}

// recorder is an Observer that keeps everything it is told.
type recorder struct {
	mu        sync.Mutex
	emitted   map[int]int
	rules     []RuleStats
	truncated []truncation
}

type truncation struct {
	nonTerminal    string
	depth, ceiling int
}

func newRecorder() *recorder { return &recorder{emitted: make(map[int]int)} }

func (r *recorder) DerivationEmitted(depth int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted[depth]++
}

func (r *recorder) RuleExpanded(s RuleStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, s)
}

func (r *recorder) RuleTruncated(nt string, _, depth, ceiling int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.truncated = append(r.truncated, truncation{nonTerminal: nt, depth: depth, ceiling: ceiling})
}

func (r *recorder) statsFor(nt string) []RuleStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RuleStats
	for _, s := range r.rules {
		if s.NonTerminal == nt {
			out = append(out, s)
		}
	}
	return out
}

// tagInitializer maps an input string to the context tag registered for it
// in tags, falling back to fallback, with the input itself as info.
func tagInitializer(tags map[string]string, fallback string) ContextInitializer {
	return func(in any, _ grammar.FunctionTable) ([]string, any, bool) {
		s, ok := in.(string)
		if !ok {
			return nil, nil, false
		}
		if tag, ok := tags[s]; ok {
			return []string{tag}, s, true
		}
		if fallback == "" {
			return nil, nil, false
		}
		return []string{fallback}, s, true
	}
}
