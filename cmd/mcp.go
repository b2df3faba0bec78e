package cmd

import (
	"github.com/huangsam/codehealth/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the codehealth MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents analyze projects through standard tools.

Tools:
  analyze_project     - full analysis result of a root
  get_recommendations - overall score, health label and recommendations
  get_file_metrics    - complexity and maintainability of one file

Flags and config act as defaults for every tool call. Progress headers are
never printed because stdio carries the protocol.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, version)
	},
}
