package testutil

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Texts returns the distinct surface texts of a run, sorted.
func Texts(result *HarnessResult) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range result.Records {
		if !seen[r.Text] {
			seen[r.Text] = true
			out = append(out, r.Text)
		}
	}
	slices.Sort(out)
	return out
}

// AssertLogContains checks that the captured log output mentions substr.
func AssertLogContains(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, substr),
		"expected log output to contain %q", substr,
	)
}
