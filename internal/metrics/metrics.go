// Package metrics records generation statistics as Prometheus metrics.
//
// A Collector owns a private registry so several generators in one process
// never collide on metric names. Collectors are safe for concurrent use,
// which lets sharded generators share one.
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/vk/sentgrid/generator"
)

const namespace = "sentgrid"

// Collector implements generator.Observer.
type Collector struct {
	registry *prometheus.Registry

	derivations *prometheus.CounterVec
	attempted   *prometheus.CounterVec
	accepted    *prometheus.CounterVec
	emitted     *prometheus.CounterVec
	truncated   *prometheus.CounterVec
	pruneFactor *prometheus.GaugeVec
	worstCase   *prometheus.HistogramVec
}

var _ generator.Observer = (*Collector)(nil)

// New returns a Collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		derivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derivations_emitted_total",
			Help:      "Root derivations handed to the sink, by depth.",
		}, []string{"depth"}),
		attempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_combinations_attempted_total",
			Help:      "Combinations passed to a rule's combiner.",
		}, []string{"symbol"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_combinations_accepted_total",
			Help:      "Combinations a rule's combiner turned into a derivation.",
		}, []string{"symbol"}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_derivations_emitted_total",
			Help:      "Derivations merged into chart cells, padding included.",
		}, []string{"symbol"}),
		truncated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_truncations_total",
			Help:      "Rule expansions skipped because of combinatorial blow-up.",
		}, []string{"symbol"}),
		pruneFactor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rule_prune_factor",
			Help:      "Last learned prune factor per rule.",
		}, []string{"symbol", "rule"}),
		worstCase: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rule_worst_case_combinations",
			Help:      "Estimated combinations of a rule expansion before sampling.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 10),
		}, []string{"symbol"}),
	}
	c.registry.MustRegister(
		c.derivations,
		c.attempted,
		c.accepted,
		c.emitted,
		c.truncated,
		c.pruneFactor,
		c.worstCase,
	)
	return c
}

// Registry exposes the collector's registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// DerivationEmitted implements generator.Observer.
func (c *Collector) DerivationEmitted(depth int) {
	c.derivations.WithLabelValues(strconv.Itoa(depth)).Inc()
}

// RuleExpanded implements generator.Observer.
func (c *Collector) RuleExpanded(s generator.RuleStats) {
	c.attempted.WithLabelValues(s.NonTerminal).Add(float64(s.Attempted))
	c.accepted.WithLabelValues(s.NonTerminal).Add(float64(s.Accepted))
	c.emitted.WithLabelValues(s.NonTerminal).Add(float64(s.Emitted))
	c.pruneFactor.WithLabelValues(s.NonTerminal, strconv.Itoa(s.Rule)).Set(s.PruneFactor)
	c.worstCase.WithLabelValues(s.NonTerminal).Observe(s.WorstCase)
}

// RuleTruncated implements generator.Observer.
func (c *Collector) RuleTruncated(nonTerminal string, _, _, _ int) {
	c.truncated.WithLabelValues(nonTerminal).Inc()
}

// WriteText writes every metric in the Prometheus text exposition format.
func (c *Collector) WriteText(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
