// Package cmd defines the command-line interface for codehealth.
package cmd

import (
	"github.com/huangsam/codehealth/core/watch"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the report subcommands to the parent report command
	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportStatusCmd)
	reportCmd.AddCommand(reportClearCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("extensions", "", "Comma-separated file extensions to analyze (default .ts,.tsx,.js,.jsx)")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of glob patterns or path prefixes to ignore")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().String("timeout", "", "Analysis deadline such as 30s or 2m (empty = none)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("top-files", contract.DefaultTopFiles, "Number of files named in recommendations")
	rootCmd.PersistentFlags().Int("min-fragment-lines", contract.DefaultMinFragmentLines, "Minimum normalized lines of a duplicated fragment")
	rootCmd.PersistentFlags().Int("large-file-lines", contract.DefaultLargeFileLines, "Line count above which a file is flagged as large")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("report-backend", string(schema.SQLiteBackend), "Report store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("report-db-connect", "", "Database connection string for the report store (SQLite: file path)")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for the run history (must differ from report-db-connect)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of analyzeCmd to Viper
	analyzeCmd.Flags().Int("fail-under", 0, "Exit non-zero when the overall score is below this value (0 = disabled)")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Bind all flags of watchCmd to Viper
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period after the last change before analyzing again")
	if err := viper.BindPFlags(watchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding watch flags", err)
	}

	// Bind all flags of configCmd to Viper
	configCmd.Flags().String("format", "yaml", "Config output format: yaml or toml")
	if err := viper.BindPFlags(configCmd.Flags()); err != nil {
		contract.LogFatal("Error binding config flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
