package cmd

import (
	"fmt"

	"github.com/huangsam/codehealth/core"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/internal/iocache"
	"github.com/spf13/cobra"
)

// reportSetup loads minimal configuration needed for report store operations.
func reportSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper("report-backend", "report-db-connect")
	if err != nil {
		return err
	}

	cfg.ReportBackend = backend
	cfg.ReportDBConnect = connStr

	return nil
}

// reportSetupWrapper wraps reportSetup to provide PreRunE for report commands.
func reportSetupWrapper(_ *cobra.Command, _ []string) error {
	return reportSetup()
}

// reportCmd focused on the stored reports.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect and manage stored analysis reports",
	Long: `Every analyze run stores its report per project root in the report store.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  show   - Print the last stored report of a root without re-analyzing
  status - Show report store statistics and connection info
  clear  - Remove all stored reports`,
}

// reportShowCmd prints the last stored report.
var reportShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Print the last stored report of a project root",
	Long: `Load the latest report recorded for the root and render it in the chosen output format.
Nothing is analyzed, so the output matches what the last analyze run produced.

Examples:
  codehealth report show ./web
  codehealth report show ./web --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteReportShow(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Failed to show report", err)
		}
	},
}

// reportStatusCmd shows report store status.
var reportStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display report store statistics and connection details",
	Long: `Show the backend, connection state, number of stored reports, entry timestamps and size.

Examples:
  codehealth report status`,
	PreRunE: reportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.InitStores(cfg.ReportBackend, cfg.ReportDBConnect, "", ""); err != nil {
			contract.LogFatal("Failed to initialize report store", err)
		}
		store := iocache.Manager.GetReportStore()
		if store == nil {
			contract.LogFatal("Failed to get report status", fmt.Errorf("report store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get report status", err)
		}
		iocache.PrintReportStatus(status)
	},
}

// reportClearCmd clears the report store.
var reportClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored reports",
	Long: `Delete every stored report from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the report table

Examples:
  codehealth report clear
  CODEHEALTH_REPORT_BACKEND=mysql CODEHEALTH_REPORT_DB_CONNECT="..." codehealth report clear`,
	PreRunE: reportSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearReports(cfg.ReportBackend, sqliteFilePath(cfg.ReportDBConnect, contract.GetReportDBFilePath()), cfg.ReportDBConnect); err != nil {
			contract.LogFatal("Failed to clear reports", err)
		}
		fmt.Println("Reports cleared successfully.")
	},
}
