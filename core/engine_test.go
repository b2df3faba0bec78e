package core

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/huangsam/codehealth/core/syntax"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const trivialJS = `// Trivial greeting helper.
// Returns a fixed message.
function greet() {
  const greeting = "hello";
  const target = "world";
  const message = greeting + ", " + target;
  const padded = message.trim();
  const upper = padded.toUpperCase();
  const lower = upper.toLowerCase();
  return lower;
}

module.exports = greet;
`

const complexJS = `function scale(items, factor) {
  for (const item of items) {
    if (item.active) {
      while (item.size > factor) {
        if (item.size % 2 === 0) { item.size /= 2; } else { item.size *= factor; }
        switch (item.kind) { case "a": item.size -= 1; break; default: item.size += 1; }
        do { item.size--; } while (item.size > 100);
        if (item.size < 0) { item.size = 0; }
      }
    }
  }
  return items;
}
`

const helperBody = `
  const total = values.reduce((sum, v) => sum + v, 0);
  const mean = total / values.length;
  const centered = values.map((v) => v - mean);
  return centered.filter((v) => Math.abs(v) > 0.5);
`

var (
	dupA = "function normalize(values) {" + helperBody + "}\n\nmodule.exports = normalize(process.argv);\n"
	dupB = "function normalizeSeries(values: number[]) {" + helperBody + "}\n\nexport default normalizeSeries([1, 2, 3]);\n"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func scenarioProject(t *testing.T) string {
	return writeProject(t, map[string]string{
		"src/trivial.js": trivialJS,
		"src/complex.js": complexJS,
		"lib/dup-a.js":   dupA,
		"lib/dup-b.ts":   dupB,
	})
}

func testConfig() *contract.Config {
	cfg := contract.DefaultConfig()
	cfg.Workers = 3
	return cfg
}

func TestAnalyzeScenario(t *testing.T) {
	defer goleak.VerifyNone(t)
	root := scenarioProject(t)

	result, err := Analyze(context.Background(), root, testConfig())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Overview.TotalFiles)
	assert.Equal(t, 0, result.Overview.SkippedFiles)
	require.Len(t, result.Complexity.Details, 4)

	files := make([]string, 0, 4)
	byFile := map[string]schema.ComplexityDetail{}
	for _, d := range result.Complexity.Details {
		files = append(files, d.File)
		byFile[d.File] = d
	}
	assert.Equal(t, []string{"lib/dup-a.js", "lib/dup-b.ts", "src/complex.js", "src/trivial.js"}, files)

	assert.Less(t, byFile["src/trivial.js"].Complexity, 10)
	assert.Greater(t, byFile["src/complex.js"].Complexity, 50)
	for f, d := range byFile {
		if f != "src/complex.js" {
			assert.Greater(t, byFile["src/complex.js"].Complexity, d.Complexity, f)
		}
	}

	found := false
	for _, inst := range result.Duplication.Instances {
		if assert.ObjectsAreEqual([]string{"lib/dup-a.js", "lib/dup-b.ts"}, inst.Files) {
			found = true
			assert.Equal(t, 4, inst.Lines)
		}
	}
	assert.True(t, found, "expected an instance shared by the two helper files")
	assert.Greater(t, result.Duplication.Percentage, 0.0)
	assert.Greater(t, result.Overview.TechnicalDebtRatio, 0.0)

	for _, d := range result.Maintainability.Details {
		if d.File == "lib/dup-a.js" || d.File == "lib/dup-b.ts" {
			assert.Contains(t, d.Issues, "duplicated code shared with other files")
		}
	}
}

func TestAnalyzeRanges(t *testing.T) {
	result, err := Analyze(context.Background(), scenarioProject(t), testConfig())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Complexity.Score, 0)
	assert.LessOrEqual(t, result.Complexity.Score, 100)
	assert.GreaterOrEqual(t, result.Maintainability.Score, 0)
	assert.LessOrEqual(t, result.Maintainability.Score, 100)
	assert.GreaterOrEqual(t, result.Duplication.Percentage, 0.0)
	assert.LessOrEqual(t, result.Duplication.Percentage, 100.0)
	for _, d := range result.Complexity.Details {
		assert.GreaterOrEqual(t, d.Complexity, 0)
		assert.LessOrEqual(t, d.Complexity, 100)
		assert.GreaterOrEqual(t, d.Maintainability, 0)
		assert.LessOrEqual(t, d.Maintainability, 100)
	}
	assert.Equal(t, result.Overview.TotalFiles, len(result.Complexity.Details))
	assert.Equal(t, result.Overview.TotalFiles, len(result.Maintainability.Details))
}

func TestAnalyzeDeterministic(t *testing.T) {
	root := scenarioProject(t)
	var first []byte
	for i, workers := range []int{1, 2, 8, 1, 4} {
		cfg := testConfig()
		cfg.Workers = workers
		result, err := Analyze(context.Background(), root, cfg)
		require.NoError(t, err)
		data, err := json.Marshal(result)
		require.NoError(t, err)
		if i == 0 {
			first = data
			continue
		}
		assert.Equal(t, string(first), string(data))
	}
}

func TestAnalyzeDuplicationIdempotence(t *testing.T) {
	root := writeProject(t, map[string]string{"a.js": dupA, "c.js": trivialJS})
	before, err := Analyze(context.Background(), root, testConfig())
	require.NoError(t, err)
	assert.Empty(t, before.Duplication.Instances)
	assert.Equal(t, 0.0, before.Duplication.Percentage)

	renamed := strings.ReplaceAll(dupA, "normalize", "normalizeAll")
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.js"), []byte(renamed), 0o644))
	after, err := Analyze(context.Background(), root, testConfig())
	require.NoError(t, err)
	require.Len(t, after.Duplication.Instances, len(before.Duplication.Instances)+1)
	assert.Equal(t, []string{"a.js", "b.js"}, after.Duplication.Instances[0].Files)
	assert.Equal(t, 4, after.Duplication.Instances[0].Lines)
	assert.Greater(t, after.Duplication.Percentage, 0.0)
}

func TestAnalyzeNotFound(t *testing.T) {
	_, err := Analyze(context.Background(), filepath.Join(t.TempDir(), "nope"), testConfig())
	var nf *contract.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestAnalyzeEmptyProject(t *testing.T) {
	root := writeProject(t, map[string]string{"README.md": "# hi\n"})
	_, err := Analyze(context.Background(), root, testConfig())
	var empty *contract.EmptyProjectError
	require.True(t, errors.As(err, &empty))
	assert.Contains(t, err.Error(), "no analyzable files found")
}

func TestAnalyzeSkipsUndecodableFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"ok.js":  trivialJS,
		"bin.js": "var x = 1;\x00\x01\x02",
	})
	run, err := AnalyzeRun(context.Background(), root, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Result.Overview.TotalFiles)
	assert.Equal(t, 1, run.Result.Overview.SkippedFiles)
	require.Len(t, run.Result.Complexity.Details, 1)
	assert.Equal(t, "ok.js", run.Result.Complexity.Details[0].File)
	require.Len(t, run.Warnings, 1)
	var decodeErr *contract.DecodeError
	assert.True(t, errors.As(run.Warnings[0], &decodeErr))
}

func TestAnalyzeSkipsUnreadableFiles(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	root := writeProject(t, map[string]string{
		"ok.js":     trivialJS,
		"locked.js": trivialJS,
	})
	locked := filepath.Join(root, "locked.js")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	run, err := AnalyzeRun(context.Background(), root, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Result.Overview.TotalFiles)
	assert.Equal(t, 1, run.Result.Overview.SkippedFiles)
	require.Len(t, run.Result.Complexity.Details, 1)
	assert.Equal(t, "ok.js", run.Result.Complexity.Details[0].File)
	require.Len(t, run.Result.Maintainability.Details, 1)
	require.Len(t, run.Warnings, 1)
	var unreadable *contract.UnreadableFileWarning
	require.True(t, errors.As(run.Warnings[0], &unreadable))
	assert.Equal(t, "locked.js", unreadable.Path)
}

func TestExtractFileVanishedAfterWalk(t *testing.T) {
	parser, err := syntax.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	root := t.TempDir()
	out, err := extractFile(context.Background(), parser, root, "gone.js", 4)
	require.NoError(t, err, "a read failure is a skipped outcome, not an error")
	var unreadable *contract.UnreadableFileWarning
	require.True(t, errors.As(out.warning, &unreadable))
	assert.Equal(t, "gone.js", unreadable.Path)

	run, err := assemble([]fileOutcome{
		{rel: "a.js", metric: schema.FileMetric{File: "a.js", Lines: 10, Complexity: 10, Maintainability: 80}},
		out,
	}, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, run.Result.Overview.TotalFiles)
	assert.Equal(t, 1, run.Result.Overview.SkippedFiles)
	assert.Equal(t, 10, run.Result.Overview.TotalLines)
	require.Len(t, run.Result.Complexity.Details, 1)
	assert.Equal(t, "a.js", run.Result.Complexity.Details[0].File)
	require.Len(t, run.Warnings, 1)
	assert.Same(t, out.warning, run.Warnings[0])
}

func TestAnalyzeAllFilesSkipped(t *testing.T) {
	root := writeProject(t, map[string]string{
		"a.js": "\xff\xfe",
		"b.js": "x\x00",
	})
	_, err := Analyze(context.Background(), root, testConfig())
	require.Error(t, err)
	var decodeErr *contract.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "a.js", decodeErr.Path)
}

func TestAnalyzeEmptyFiles(t *testing.T) {
	root := writeProject(t, map[string]string{"a.ts": "", "b.ts": ""})
	result, err := Analyze(context.Background(), root, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Overview.TotalFiles)
	assert.Equal(t, 0, result.Overview.TotalLines)
	assert.Equal(t, 0.0, result.Overview.TechnicalDebtRatio)
	assert.Equal(t, 0, result.Complexity.Score)
}

func TestAnalyzeTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	cfg := testConfig()
	cfg.Timeout = 1 // 1ns is always expired by the first check

	result, err := Analyze(context.Background(), scenarioProject(t), cfg)
	assert.Nil(t, result)
	var timeoutErr *contract.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnalyzeCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Analyze(ctx, scenarioProject(t), testConfig())
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeConcurrentRuns(t *testing.T) {
	defer goleak.VerifyNone(t)
	root := scenarioProject(t)
	errs := make(chan error, 4)
	for range 4 {
		go func() {
			_, err := Analyze(context.Background(), root, testConfig())
			errs <- err
		}()
	}
	for range 4 {
		assert.NoError(t, <-errs)
	}
}
