//go:build basic || database

// Package integration drives the codehealth binary end to end.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Database backends: go test -tags database ./integration
package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a codehealth binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the codehealth binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "codehealth-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "codehealth")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/codehealth")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if output, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build codehealth: %v\n%s", err, output))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// fixtureFiles is a small project with one duplicated function body.
var fixtureFiles = map[string]string{
	"src/math.ts": `// Adds two numbers.
export function add(a: number, b: number): number {
  return a + b;
}
`,
	"src/flow.js": `function classify(n) {
  if (n > 10) {
    return "big";
  }
  for (let i = 0; i < n; i++) {
    while (i > 5) {
      break;
    }
  }
  return "small";
}
`,
	"lib/a.js": `function shared(items) {
  const total = items.length;
  const first = items[0];
  const last = items[total - 1];
  return first + last;
}
`,
	"lib/b.ts": `export function sharedToo(items: number[]) {
  const total = items.length;
  const first = items[0];
  const last = items[total - 1];
  return first + last;
}
`,
	"node_modules/dep/index.js": "function ignored() {}\n",
	".cache/skip.js":            "function hidden() {}\n",
}

// writeFixture writes fixtureFiles into a fresh directory.
func writeFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range fixtureFiles {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

// cliResult is the outcome of one codehealth invocation.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCodehealth runs the binary in dir with HOME isolated to home and extra env entries.
func runCodehealth(t *testing.T, dir, home string, env []string, args ...string) cliResult {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), "HOME="+home), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := cliResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		require.True(t, ok, "failed to start %s: %v", cmd.String(), err)
		res.ExitCode = exitErr.ExitCode()
	}
	return res
}

// mustRun runs codehealth and fails the test on a non-zero exit.
func mustRun(t *testing.T, dir, home string, env []string, args ...string) cliResult {
	t.Helper()
	res := runCodehealth(t, dir, home, env, args...)
	require.Equal(t, 0, res.ExitCode, "codehealth %v\nstdout: %s\nstderr: %s", args, res.Stdout, res.Stderr)
	return res
}
