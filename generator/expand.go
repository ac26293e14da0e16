package generator

import (
	"math"
	"slices"

	"github.com/vk/sentgrid/derivation"
	"github.com/vk/sentgrid/grammar"
	"github.com/vk/sentgrid/reservoir"
)

const (
	// MaxRuleQuota caps the number of derivations one rule may contribute to
	// a chart cell.
	MaxRuleQuota = 1_000_000

	// valveMinAttempts is the number of evaluations before the sampling
	// valve may close.
	valveMinAttempts = 20
	// valveCollapse closes the valve when the observed accept ratio drops
	// below this fraction of the prune factor.
	valveCollapse = 0.1

	cancelCheckInterval = 1024
)

// ruleQuota is min(MaxRuleQuota, ceil(capacity * weight)).
func ruleQuota(capacity int, weight float64) int {
	q := math.Ceil(float64(capacity) * weight)
	if q > MaxRuleQuota {
		return MaxRuleQuota
	}
	return max(1, int(q))
}

// size is the number of derivations element e has at exactly depth d.
// Terminals and choices have no depth and are handled by the callers.
func (p *pass) size(e grammar.Element, d int) int {
	if d < 0 {
		return 0
	}
	if p.g.NonTerminals()[e.Index].IsContext {
		if d > 0 || p.contexts == nil {
			return 0
		}
		return len(p.contexts[e.Index])
	}
	return p.charts[d][e.Index].Len()
}

// upper is the deepest depth position j may take when position i holds the
// child at depth-1. Earlier positions may reach depth-1, later ones stop
// one short so each combination is produced once.
func upper(i, j, depth, ceiling int) int {
	hi := depth - 1
	if j > i {
		hi = depth - 2
	}
	return min(hi, ceiling)
}

// worstCase counts the combinations a rule would enumerate at depth when
// positions other than the fixed one are limited to depths <= ceiling.
func (p *pass) worstCase(depth int, exp []grammar.Element, ceiling int) float64 {
	total := 0.0
	for i, fixed := range exp {
		if fixed.Kind != grammar.KindNonTerminal {
			continue
		}
		prod := float64(p.size(fixed, depth-1))
		for j := 0; j < len(exp) && prod > 0; j++ {
			if j == i || exp[j].Kind != grammar.KindNonTerminal {
				continue
			}
			sum := 0
			for d := 0; d <= upper(i, j, depth, ceiling); d++ {
				sum += p.size(exp[j], d)
			}
			prod *= float64(sum)
		}
		total += prod
	}
	return total
}

// estimate returns the worst-case count for r at depth, lowering the depth
// ceiling of the non-fixed positions until it fits under the blow-up ceiling.
func (p *pass) estimate(depth int, r *grammar.Rule) (worst float64, ceiling int) {
	if !r.HasNonTerminal() {
		if depth == 0 {
			return 1, 0
		}
		return 0, 0
	}
	for ceiling = depth - 1; ; ceiling-- {
		worst = p.worstCase(depth, r.Expansion, ceiling)
		if worst <= p.g.opts.BlowUpCeiling || ceiling <= 0 {
			return worst, ceiling
		}
	}
}

// expand runs one rule at depth and merges its sample into dst.
func (p *pass) expand(depth int, nt *grammar.NonTerminal, r *grammar.Rule, dst *cell) error {
	g := p.g
	worst, ceiling := p.estimate(depth, r)
	if worst > g.opts.BlowUpCeiling {
		g.opts.Observer.RuleTruncated(nt.Name, r.Number, depth, -1)
		if g.opts.Debug >= 1 {
			p.logger.Debug("Rule exceeds blow-up ceiling, skipping.",
				"symbol", nt.Name, "rule", r.Number, "depth", depth, "worst_case", worst)
		}
		return nil
	}
	if worst == 0 {
		return nil
	}
	if ceiling < depth-1 {
		g.opts.Observer.RuleTruncated(nt.Name, r.Number, depth, ceiling)
		if g.opts.Debug >= 1 {
			p.logger.Debug("Rule exceeds blow-up ceiling, truncating child depth.",
				"symbol", nt.Name, "rule", r.Number, "depth", depth, "ceiling", ceiling, "worst_case", worst)
		}
	}

	quota := ruleQuota(dst.Cap(), r.Weight)
	x := &expansion{
		p:        p,
		nt:       nt,
		rule:     r,
		depth:    depth,
		quota:    quota,
		prob:     math.Min(1, float64(quota)/(worst*r.PruneFactor)),
		out:      reservoir.New[*derivation.Derivation](quota, g.rng),
		lists:    make([][]*derivation.Derivation, len(r.Expansion)),
		idx:      make([]int, len(r.Expansion)),
		children: make([]*derivation.Derivation, len(r.Expansion)),
	}
	x.sampling = x.prob < 1

	if err := x.enumerate(ceiling); err != nil {
		return err
	}

	if x.attempted > 0 {
		r.UpdatePruneFactor(float64(x.accepted) / float64(x.attempted))
	}
	if n := x.out.Len(); r.Repeat && n > 0 && n < quota {
		produced := slices.Clone(x.out.Items())
		for x.out.Len() < quota {
			x.out.Add(produced[g.rng.IntN(n)])
		}
	}
	dst.Merge(x.out)

	stats := RuleStats{
		NonTerminal: nt.Name,
		Rule:        r.Number,
		Depth:       depth,
		WorstCase:   worst,
		Quota:       quota,
		Attempted:   x.attempted,
		Accepted:    x.accepted,
		Emitted:     x.out.Len(),
		PruneFactor: r.PruneFactor,
	}
	g.opts.Observer.RuleExpanded(stats)
	if g.opts.Debug >= 2 {
		p.logger.Debug("Expanded rule.",
			"symbol", nt.Name, "rule", r.Number, "depth", depth,
			"worst_case", worst, "quota", quota, "attempted", x.attempted,
			"accepted", x.accepted, "emitted", stats.Emitted, "prune_factor", r.PruneFactor)
	}
	return nil
}

// expansion is the enumeration state of one rule at one depth.
type expansion struct {
	p     *pass
	nt    *grammar.NonTerminal
	rule  *grammar.Rule
	depth int
	quota int

	prob     float64
	sampling bool

	attempted int
	accepted  int
	out       *cell

	// lists[k] holds the candidates for position k; a nil entry stands for
	// a choice resolved when the combination is built.
	lists    [][]*derivation.Derivation
	idx      []int
	children []*derivation.Derivation
}

// enumerate visits every combination of the rule at x.depth once.
func (x *expansion) enumerate(ceiling int) error {
	exp := x.rule.Expansion
	if !x.rule.HasNonTerminal() {
		for k, e := range exp {
			x.lists[k] = x.fill(x.lists[k][:0], e, 0, 0)
		}
		return x.product()
	}
	for i, fixed := range exp {
		if fixed.Kind != grammar.KindNonTerminal || x.p.size(fixed, x.depth-1) == 0 {
			continue
		}
		for k, e := range exp {
			lo, hi := 0, upper(i, k, x.depth, ceiling)
			if k == i {
				lo, hi = x.depth-1, x.depth-1
			}
			x.lists[k] = x.fill(x.lists[k][:0], e, lo, hi)
		}
		if err := x.product(); err != nil {
			return err
		}
	}
	return nil
}

// fill appends the candidates of e with depth in [lo, hi] to dst.
func (x *expansion) fill(dst []*derivation.Derivation, e grammar.Element, lo, hi int) []*derivation.Derivation {
	switch e.Kind {
	case grammar.KindTerminal:
		return append(dst, derivation.Terminal(e.Token))
	case grammar.KindChoice:
		return append(dst, nil)
	}
	p := x.p
	if p.g.NonTerminals()[e.Index].IsContext {
		if lo == 0 && hi >= 0 && p.contexts != nil {
			dst = append(dst, p.contexts[e.Index]...)
		}
		return dst
	}
	for d := max(lo, 0); d <= hi; d++ {
		dst = append(dst, p.charts[d][e.Index].Items()...)
	}
	return dst
}

// product walks the cartesian product of x.lists with an index vector.
func (x *expansion) product() error {
	for _, l := range x.lists {
		if len(l) == 0 {
			return nil
		}
	}
	clear(x.idx)
	for {
		if err := x.step(); err != nil {
			return err
		}
		k := len(x.idx) - 1
		for ; k >= 0; k-- {
			x.idx[k]++
			if x.idx[k] < len(x.lists[k]) {
				break
			}
			x.idx[k] = 0
		}
		if k < 0 {
			return nil
		}
	}
}

func (x *expansion) step() error {
	p := x.p
	p.steps++
	if p.steps%cancelCheckInterval == 0 {
		if err := p.ctx.Err(); err != nil {
			return err
		}
	}
	if x.sampling && p.g.rng.Float64() >= x.prob {
		return nil
	}
	x.attempted++
	ok, err := x.combine()
	if err != nil {
		return err
	}
	if ok {
		x.accepted++
	}
	x.valve()
	return nil
}

// combine builds the current combination. It returns false when the
// contexts disagree or the combiner rejects it.
func (x *expansion) combine() (bool, error) {
	rng := x.p.g.rng
	var meet *derivation.Context
	for k, l := range x.lists {
		d := l[x.idx[k]]
		if d == nil {
			choices := x.rule.Expansion[k].Choices
			if len(choices) == 0 {
				return false, nil
			}
			d = derivation.Terminal(choices[rng.IntN(len(choices))])
		}
		var ok bool
		if meet, ok = derivation.Meet(meet, d.Context()); !ok {
			return false, nil
		}
		x.children[k] = d
	}

	out, err := x.rule.Combiner.Combine(x.children)
	if err != nil {
		return false, &ExpansionError{
			NonTerminal: x.nt.Name,
			Rule:        x.rule.Number,
			Expansion:   grammar.ExpansionString(x.rule.Expansion),
			Depth:       x.depth,
			Err:         err,
		}
	}
	if out == nil {
		return false, nil
	}
	if meet != nil && out.Context() == nil {
		out = out.WithContext(meet)
	}
	x.out.Add(out)
	return true, nil
}

// valve turns sub-sampling off when the accept ratio collapses far below
// the prune factor, and back on once half the quota is filled.
func (x *expansion) valve() {
	half := float64(x.quota) / 2
	switch {
	case x.sampling:
		if x.attempted >= valveMinAttempts && float64(x.accepted) < half &&
			float64(x.accepted)/float64(x.attempted) < x.rule.PruneFactor*valveCollapse {
			x.sampling = false
		}
	case x.prob < 1 && float64(x.accepted) >= half:
		x.sampling = true
	}
}
