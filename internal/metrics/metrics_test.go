package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/generator"
)

func TestCollector(t *testing.T) {
	c := New()

	c.DerivationEmitted(1)
	c.DerivationEmitted(1)
	c.DerivationEmitted(2)
	c.RuleExpanded(generator.RuleStats{
		NonTerminal: "name",
		Rule:        0,
		Depth:       1,
		WorstCase:   4,
		Quota:       2,
		Attempted:   3,
		Accepted:    2,
		Emitted:     2,
		PruneFactor: 0.5,
	})
	c.RuleTruncated("root", 1, 3, -1)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.derivations.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.derivations.WithLabelValues("2")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.attempted.WithLabelValues("name")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.accepted.WithLabelValues("name")))
	assert.Equal(t, 0.5, testutil.ToFloat64(c.pruneFactor.WithLabelValues("name", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.truncated.WithLabelValues("root")))
}

func TestCollector_WriteText(t *testing.T) {
	c := New()
	c.DerivationEmitted(0)

	var buf bytes.Buffer
	require.NoError(t, c.WriteText(&buf))
	assert.Contains(t, buf.String(), `sentgrid_derivations_emitted_total{depth="0"} 1`)
	assert.Contains(t, buf.String(), "# TYPE sentgrid_derivations_emitted_total counter")
}
