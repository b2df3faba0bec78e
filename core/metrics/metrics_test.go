package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/huangsam/codehealth/core/syntax"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, rel, src string) *Extraction {
	t.Helper()
	parser, err := syntax.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	ex, err := Extract(context.Background(), parser, rel, []byte(src))
	require.NoError(t, err)
	return ex
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(nil))
	assert.Equal(t, 1, CountLines([]byte("x")))
	assert.Equal(t, 1, CountLines([]byte("x\n")))
	assert.Equal(t, 1, CountLines([]byte("\n")))
	assert.Equal(t, 2, CountLines([]byte("x\ny")))
	assert.Equal(t, 3, CountLines([]byte("x\n\ny\n")))
}

func TestScores(t *testing.T) {
	assert.Equal(t, 0.0, ComplexityScore(3, 0))
	assert.Equal(t, 10.0, ComplexityScore(0, 10))
	assert.Equal(t, 60.0, ComplexityScore(5, 10))
	assert.Equal(t, 100.0, ComplexityScore(50, 10))

	assert.Equal(t, 0.0, MaintainabilityScore(1, 1, 0))
	assert.Equal(t, 25.0, MaintainabilityScore(1, 1, 8))
	assert.Equal(t, 100.0, MaintainabilityScore(10, 10, 4))
}

func TestExtract(t *testing.T) {
	src := `// adds numbers
function add(a, b) {
  if (a > b) {
    return a + b;
  }
  return b + a;
}
`
	ex := extract(t, "src/add.js", src)
	assert.Equal(t, "src/add.js", ex.Metric.File)
	assert.Equal(t, 7, ex.Metric.Lines)
	assert.Equal(t, 1, ex.Metric.Branches)
	assert.Equal(t, 1, ex.Metric.Comments)
	assert.Equal(t, 1, ex.Metric.Functions)
	assert.InDelta(t, 2.0/7*100, ex.Metric.Complexity, 1e-9)
	assert.InDelta(t, 2.0/7*100, ex.Metric.Maintainability, 1e-9)
	assert.Len(t, ex.Bodies, 1)
}

func TestExtractEmptyFile(t *testing.T) {
	ex := extract(t, "empty.ts", "")
	assert.Equal(t, 0, ex.Metric.Lines)
	assert.Equal(t, 0.0, ex.Metric.Complexity)
	assert.Equal(t, 0.0, ex.Metric.Maintainability)
	assert.Empty(t, ex.Bodies)
}

func TestExtractDecodeErrors(t *testing.T) {
	parser, err := syntax.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	for _, content := range [][]byte{{'a', 0, 'b'}, {0xff, 0xfe, 'x'}} {
		_, err := Extract(context.Background(), parser, "bad.js", content)
		var decodeErr *contract.DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, "bad.js", decodeErr.Path)
	}
}

func TestComplexityMonotonic(t *testing.T) {
	base := "function f(x) {\n" + strings.Repeat("  x++;\n", 20) + "}\n"
	withBranch := "function f(x) {\n" + "  if (x) { x++; }\n" + strings.Repeat("  x++;\n", 19) + "}\n"

	a := extract(t, "a.js", base)
	b := extract(t, "b.js", withBranch)
	require.Equal(t, a.Metric.Lines, b.Metric.Lines)
	assert.Greater(t, b.Metric.Complexity, a.Metric.Complexity)
}

func TestIssues(t *testing.T) {
	cfg := contract.DefaultConfig()

	healthy := schema.FileMetric{File: "a.ts", Lines: 10, Complexity: 20, Maintainability: 80}
	assert.Equal(t, []string{}, Issues(healthy, false, cfg))

	bad := schema.FileMetric{File: "b.ts", Lines: 600, Complexity: 72.6, Maintainability: 12.4}
	assert.Equal(t, []string{
		"high branching density (73%)",
		"low documentation and decomposition density (12%)",
		"large file (600 lines)",
		"duplicated code shared with other files",
	}, Issues(bad, true, cfg))

	boundary := schema.FileMetric{File: "c.ts", Lines: 500, Complexity: 70, Maintainability: 65}
	assert.Empty(t, Issues(boundary, false, cfg))
}
