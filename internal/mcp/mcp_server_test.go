package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/codehealth/internal/contract"
	mcp_internal "github.com/huangsam/codehealth/internal/mcp"
	"github.com/huangsam/codehealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/math.ts": "// adds numbers\nexport function add(a: number, b: number) {\n  return a + b;\n}\n",
		"src/flow.js": "function pick(x) {\n  if (x > 1) {\n    return 1;\n  }\n  return 0;\n}\n",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func callTool(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var mgr contract.StoreManager
	s := mcp_internal.NewMCPServer(contract.DefaultConfig(), mgr, "test")

	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	t.Run("analyze_project missing root_path", func(t *testing.T) {
		res := callTool(t, "analyze_project", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "root_path is required")
	})

	t.Run("analyze_project invalid timeout", func(t *testing.T) {
		res := callTool(t, "analyze_project", map[string]any{"root_path": t.TempDir(), "timeout": "soon"})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "timeout 'soon'")
	})

	t.Run("get_file_metrics missing file", func(t *testing.T) {
		res := callTool(t, "get_file_metrics", map[string]any{"root_path": t.TempDir()})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "file is required")
	})

	t.Run("get_recommendations missing root", func(t *testing.T) {
		res := callTool(t, "get_recommendations", map[string]any{"root_path": filepath.Join(t.TempDir(), "missing")})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "path not found")
	})

	t.Run("analyze_project empty project", func(t *testing.T) {
		res := callTool(t, "analyze_project", map[string]any{"root_path": t.TempDir()})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "no analyzable files found")
	})
}

func TestAnalyzeProject(t *testing.T) {
	root := writeProject(t)
	res := callTool(t, "analyze_project", map[string]any{"root_path": root})
	require.False(t, res.IsError, resultText(t, res))

	var result schema.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
	assert.Equal(t, 2, result.Overview.TotalFiles)
	assert.Len(t, result.Complexity.Details, 2)
	assert.Equal(t, "src/flow.js", result.Complexity.Details[0].File)
}

func TestAnalyzeProjectExtensions(t *testing.T) {
	root := writeProject(t)
	res := callTool(t, "analyze_project", map[string]any{"root_path": root, "extensions": "ts"})
	require.False(t, res.IsError, resultText(t, res))

	var result schema.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &result))
	assert.Equal(t, 1, result.Overview.TotalFiles)
	assert.Equal(t, "src/math.ts", result.Complexity.Details[0].File)
}

func TestGetRecommendations(t *testing.T) {
	root := writeProject(t)
	res := callTool(t, "get_recommendations", map[string]any{"root_path": root})
	require.False(t, res.IsError, resultText(t, res))

	var verdict map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &verdict))
	assert.Contains(t, verdict, "overallScore")
	assert.Contains(t, verdict, "health")
	assert.Contains(t, verdict, "recommendations")
}

func TestGetFileMetrics(t *testing.T) {
	root := writeProject(t)

	res := callTool(t, "get_file_metrics", map[string]any{"root_path": root, "file": "./src/math.ts"})
	require.False(t, res.IsError, resultText(t, res))
	var metrics mcp_internal.FileMetrics
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &metrics))
	assert.Equal(t, "src/math.ts", metrics.File)
	assert.Equal(t, "src/math.ts", metrics.Complexity.File)
	assert.Equal(t, "src/math.ts", metrics.Maintainability.File)

	abs := filepath.Join(root, "src", "flow.js")
	res = callTool(t, "get_file_metrics", map[string]any{"root_path": root, "file": abs})
	require.False(t, res.IsError, resultText(t, res))

	res = callTool(t, "get_file_metrics", map[string]any{"root_path": root, "file": "src/none.ts"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "file not eligible for analysis: src/none.ts")
}
