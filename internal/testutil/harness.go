package testutil

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/sentgrid/internal/app"
	"github.com/vk/sentgrid/internal/hcl"
	"github.com/vk/sentgrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Record is one decoded output line.
type Record struct {
	Iteration int             `json:"iteration"`
	Depth     int             `json:"depth"`
	Input     *int            `json:"input"`
	Text      string          `json:"text"`
	Value     json.RawMessage `json:"value"`
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Output    string
	Records   []Record
	Err       error
	App       *app.App
	// Dir is the temporary root the files were written to.
	Dir string
}

// ContextsFile is the file name that, when present in the test files, is
// passed to the app as its contexts file.
const ContextsFile = "inputs.yaml"

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure func(*app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, configure, modules...)
}

// RunIntegrationTestWithContext writes files under a temporary directory,
// builds an App over its "grammar" subdirectory and runs it. configure may
// adjust the config before validation; modules replace the built-in modules
// when given.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure func(*app.Config), modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	grammarDir := filepath.Join(tmpDir, "grammar")
	require.NoError(t, os.Mkdir(grammarDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := app.Config{
		GrammarPath: grammarDir,
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	if _, ok := files[ContextsFile]; ok {
		cfg.ContextsPath = filepath.Join(tmpDir, ContextsFile)
	}
	if configure != nil {
		configure(&cfg)
	}

	result := &HarnessResult{Dir: tmpDir}
	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	logBuffer := &SafeBuffer{}
	outBuffer := &SafeBuffer{}
	testApp, err := app.NewApp(outBuffer, logBuffer, appConfig, hcl.NewLoader(), modules...)
	if err == nil {
		err = testApp.Run(ctx)
	}

	if os.Getenv("SENTGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	result.LogOutput = logBuffer.String()
	result.Output = outBuffer.String()
	result.Err = err
	result.App = testApp
	result.Records = decodeRecords(t, result.Output)
	return result
}

func decodeRecords(t *testing.T, out string) []Record {
	t.Helper()
	var records []Record
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		var rec Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec), "invalid output line %q", sc.Text())
		records = append(records, rec)
	}
	require.NoError(t, sc.Err())
	return records
}
