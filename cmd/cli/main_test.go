package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/internal/cli"
)

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
generation {
  max_depth = 2
}

rule "root" { expansion = ["hello", "$name"] }
rule "name" { expansion = [["alice", "bob"]] }
`), 0o644))

	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), &out, &errOut, []string{"-g", path, "-log-level", "error"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, `"text":"hello `)
	}
}

func TestRun_UsageError(t *testing.T) {
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"-log-format", "xml", "g.hcl"})
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
