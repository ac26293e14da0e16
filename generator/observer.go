package generator

// Observer receives generation statistics. Implementations are called from
// the generating goroutine and must not block.
type Observer interface {
	// DerivationEmitted is called once per root derivation handed to the sink.
	DerivationEmitted(depth int)
	// RuleExpanded is called after a rule has been expanded at a depth.
	RuleExpanded(stats RuleStats)
	// RuleTruncated is called when the blow-up ceiling limits a rule at a
	// depth. ceiling is the deepest child depth still enumerated for the
	// non-fixed positions, or -1 when the rule was skipped entirely.
	RuleTruncated(nonTerminal string, rule, depth, ceiling int)
}

// RuleStats describes one rule expansion.
type RuleStats struct {
	NonTerminal string
	Rule        int
	Depth       int
	// WorstCase is the estimated number of combinations before sampling.
	WorstCase float64
	Quota     int
	// Attempted counts combinations that passed the sampling coin.
	Attempted int
	// Accepted counts combinations the combiner turned into a derivation.
	Accepted int
	// Emitted is how many derivations were merged into the chart cell,
	// padding included.
	Emitted     int
	PruneFactor float64
}

type nopObserver struct{}

func (nopObserver) DerivationEmitted(int)               {}
func (nopObserver) RuleExpanded(RuleStats)              {}
func (nopObserver) RuleTruncated(string, int, int, int) {}
