package cmd

import (
	"fmt"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// This is used by commands that need history access without full shared setup.
func historySetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper("history-backend", "history-db-connect")
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no report store for history commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetup loads minimal configuration needed for migrate operations.
// Stores are not initialized so that migrations run against a fresh database.
func historyMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := storeBackendFromViper("history-backend", "history-db-connect")
	if err != nil {
		return err
	}

	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = connStr

	return nil
}

// historyMigrateSetupWrapper wraps historyMigrateSetup to provide PreRunE for migrate command.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return historyMigrateSetup()
}

// historyCmd focused on run history management.
//
// Note: History subcommands use minimal initialization (historySetup) instead of
// the full sharedSetup used by analysis commands. No project root is needed.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the history of analysis runs and per-file scores",
	Long: `Manage the run history used for trend tracking and reporting.

When enabled with --history-backend, every analyze run records:
- Run metadata (root, timestamps, configuration)
- Project totals (scores, duplication, health label)
- Per-file complexity, maintainability and issue counts

Supported backends: SQLite, MySQL, PostgreSQL, or None (default, disabled)

Subcommands:
  status  - Show history statistics
  export  - Export history to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite
  codehealth analyze --history-backend sqlite

  # Export for analysis in pandas/DuckDB
  codehealth history export --history-backend sqlite --output-file history`,
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs and file scores",
	Long: `Delete all stored runs and per-file score rows.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the history tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  codehealth history export --history-backend sqlite --output-file backup
  codehealth history clear --history-backend sqlite`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearHistory(cfg.HistoryBackend, sqliteFilePath(cfg.HistoryDBConnect, contract.GetHistoryDBFilePath()), cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear history", err)
		}
		fmt.Println("History cleared successfully.")
	},
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display history statistics and connection details",
	Long: `Show information about the run history.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total files analyzed across all runs
- Row counts per table

Examples:
  codehealth history status --history-backend sqlite`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := iocache.Manager.GetHistoryStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", fmt.Errorf("history store is not configured"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		iocache.PrintHistoryStatus(status)
	},
}

// historyExportCmd exports the run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all stored runs and file scores to Parquet.

Writes two files next to the --output-file prefix:
- <prefix>.runs.parquet        one row per run
- <prefix>.file_scores.parquet one row per analyzed file per run

Requires: --output-file parameter

Examples:
  codehealth history export --history-backend sqlite --output-file history
  duckdb -c "SELECT health, count(*) FROM read_parquet('history.runs.parquet') GROUP BY 1"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteHistoryExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the history store.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version
  codehealth history migrate --history-backend sqlite

  # Roll back every migration
  codehealth history migrate --history-backend sqlite --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
