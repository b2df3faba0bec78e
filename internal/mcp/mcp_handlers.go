package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/codehealth/core"
	"github.com/huangsam/codehealth/core/discover"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// FileMetrics is the get_file_metrics payload.
type FileMetrics struct {
	File            string                       `json:"file"`
	Complexity      schema.ComplexityDetail      `json:"complexity"`
	Maintainability schema.MaintainabilityDetail `json:"maintainability"`
}

func (h *toolHandler) handleAnalyzeProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if exts := request.GetString("extensions", ""); exts != "" {
		cfg.Extensions = contract.ParseExtensions(exts)
	}
	if t := request.GetString("timeout", ""); t != "" {
		timeout, err := time.ParseDuration(t)
		if err != nil || timeout < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: timeout '%s' is not a non-negative duration", t)), nil
		}
		cfg.Timeout = timeout
	}

	report, _, err := core.GetReport(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(report.Result)
}

func (h *toolHandler) handleGetRecommendations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	report, _, err := core.GetReport(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	return jsonResult(schema.NewVerdict(report))
}

func (h *toolHandler) handleGetFileMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	file, err := request.RequireString("file")
	if err != nil || strings.TrimSpace(file) == "" {
		return mcp.NewToolResultError("invalid parameters: file is required"), nil
	}
	rel := relativeFile(cfg.RootPath, file)

	files, _, err := discover.Files(ctx, cfg.RootPath, discover.OptionsFromConfig(cfg))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if i := sort.SearchStrings(files, rel); i == len(files) || files[i] != rel {
		return mcp.NewToolResultError(fmt.Sprintf("file not eligible for analysis: %s", rel)), nil
	}

	report, _, err := core.GetReport(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	metrics, ok := findFileMetrics(report.Result, rel)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("file not analyzed: %s", rel)), nil
	}
	return jsonResult(metrics)
}

// configFor clones the base config and points it at the requested root.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	root, err := request.RequireString("root_path")
	if err != nil || strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root_path is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve root_path '%s': %w", root, err)
	}
	cfg := h.baseCfg.Clone()
	cfg.RootPath = absRoot
	return cfg, nil
}

// relativeFile turns a requested file into the forward-slash path used in results.
func relativeFile(root, file string) string {
	if filepath.IsAbs(file) {
		if rel, err := filepath.Rel(root, file); err == nil {
			file = rel
		}
	}
	return strings.TrimPrefix(filepath.ToSlash(filepath.Clean(file)), "./")
}

func findFileMetrics(result *schema.AnalysisResult, rel string) (FileMetrics, bool) {
	out := FileMetrics{File: rel}
	found := false
	for _, d := range result.Complexity.Details {
		if d.File == rel {
			out.Complexity = d
			found = true
			break
		}
	}
	for _, d := range result.Maintainability.Details {
		if d.File == rel {
			out.Maintainability = d
			break
		}
	}
	return out, found
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
