package generator

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/vk/sentgrid/grammar"
)

// DefaultTargetPruningSize is the depth-0 chart capacity used when
// Options.TargetPruningSize is zero.
const DefaultTargetPruningSize = 100

// DefaultBlowUpCeiling is the worst-case combination count above which a
// rule's child depths are truncated, used when Options.BlowUpCeiling is zero.
const DefaultBlowUpCeiling = 5e8

// defaultSeed is used when neither Rand nor Seed is set.
const defaultSeed uint64 = 1

// ContextInitializer turns a caller input into a context. tags name the
// context symbols the input satisfies; ok=false drops the input.
type ContextInitializer func(input any, fns grammar.FunctionTable) (tags []string, info any, ok bool)

// Options configure a Generator.
type Options struct {
	MaxDepth          int
	TargetPruningSize int
	MaxConstants      int
	// BlowUpCeiling bounds the combinations one rule may enumerate at a
	// depth. Zero means DefaultBlowUpCeiling.
	BlowUpCeiling float64

	// Rand is the random source. When nil a PCG source seeded with Seed is
	// used.
	Rand *rand.Rand
	Seed uint64

	// Debug raises log verbosity: 1 logs truncated rules and depth
	// summaries, 2 logs every rule expansion.
	Debug int

	Contextual         bool
	RootSymbol         string
	ContextInitializer ContextInitializer
	// ContextKey maps an input to a comparable key; contexts with equal
	// keys are compatible. When nil, or when a key is not comparable, only
	// identical contexts are compatible.
	ContextKey func(input any) any

	// Pass selects the "agent" or "user" generation pass.
	Pass      string
	Constants grammar.ConstantProvider

	Logger   *slog.Logger
	Observer Observer
}

func (o *Options) setDefaults() error {
	if o.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth %d is negative", ErrInvalidOptions, o.MaxDepth)
	}
	if o.TargetPruningSize < 0 {
		return fmt.Errorf("%w: target pruning size %d is negative", ErrInvalidOptions, o.TargetPruningSize)
	}
	if !(o.BlowUpCeiling >= 0) {
		return fmt.Errorf("%w: blow-up ceiling %v is negative", ErrInvalidOptions, o.BlowUpCeiling)
	}
	if o.BlowUpCeiling == 0 {
		o.BlowUpCeiling = DefaultBlowUpCeiling
	}
	if o.TargetPruningSize == 0 {
		o.TargetPruningSize = DefaultTargetPruningSize
	}
	if o.Contextual && o.ContextInitializer == nil {
		return ErrNoContextInitializer
	}
	if o.Rand == nil {
		seed := o.Seed
		if seed == 0 {
			seed = defaultSeed
		}
		o.Rand = rand.New(rand.NewPCG(seed, DeriveSeed(seed, 0)))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return nil
}

// DeriveSeed mixes a parent seed and a stream id into an independent seed,
// for example one per shard.
//
// Complexity: O(1).
func DeriveSeed(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// CallOption configures a single generation call.
type CallOption func(*call)

type call struct {
	constants map[string][]grammar.Constant
}

// WithConstants injects lexical constants for one call. Each constant becomes
// a temporary rule on every non-terminal that consumes its token.
func WithConstants(constants map[string][]grammar.Constant) CallOption {
	return func(c *call) {
		if c.constants == nil {
			c.constants = make(map[string][]grammar.Constant, len(constants))
		}
		for tok, cs := range constants {
			c.constants[tok] = append(c.constants[tok], cs...)
		}
	}
}
