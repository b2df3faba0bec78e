// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the codehealth MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Code Health Analysis Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_project ---
	s.AddTool(mcp.NewTool("analyze_project",
		mcp.WithDescription("Analyze a JavaScript/TypeScript project for complexity, duplication and maintainability."),
		mcp.WithString("root_path", mcp.Description("Absolute path to the project root."), mcp.Required()),
		mcp.WithString("extensions", mcp.Description("Comma-separated file extensions to analyze (defaults to .ts,.tsx,.js,.jsx).")),
		mcp.WithString("timeout", mcp.Description("Analysis deadline as a duration such as '30s' (defaults to none).")),
	), h.handleAnalyzeProject)

	// --- 2. Tool: get_recommendations ---
	s.AddTool(mcp.NewTool("get_recommendations",
		mcp.WithDescription("Get the overall health score, its label and prioritized recommendations for a project."),
		mcp.WithString("root_path", mcp.Description("Absolute path to the project root."), mcp.Required()),
	), h.handleGetRecommendations)

	// --- 3. Tool: get_file_metrics ---
	s.AddTool(mcp.NewTool("get_file_metrics",
		mcp.WithDescription("Get the complexity and maintainability details of one file in a project."),
		mcp.WithString("root_path", mcp.Description("Absolute path to the project root."), mcp.Required()),
		mcp.WithString("file", mcp.Description("File path relative to the project root."), mcp.Required()),
	), h.handleGetFileMetrics)

	return s
}

// StartMCPServer serves the codehealth tools over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
