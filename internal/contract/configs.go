package contract

import (
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/huangsam/codehealth/schema"
)

// Default values for configuration.
const (
	DefaultPrecision        = 1
	DefaultMinFragmentLines = 4
	DefaultLargeFileLines   = 500
	DefaultTopFiles         = 3
)

// Default thresholds for recommendations and per-file issues.
const (
	DefaultComplexityThreshold      = 70.0
	DefaultMaintainabilityThreshold = 65.0
	DefaultDuplicationThreshold     = 15.0
)

// Default weights for the overall score.
const (
	DefaultComplexityWeight      = 0.3
	DefaultMaintainabilityWeight = 0.4
	DefaultDuplicationWeight     = 0.3
)

// weightTolerance is how far the sum of weights may drift from 1.0.
const weightTolerance = 0.001

// DefaultExtensions are the file extensions analyzed when none are configured.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Weights holds the overall score weights. They must sum to 1.
type Weights struct {
	Complexity      float64
	Maintainability float64
	Duplication     float64
}

// WeightsRawInput holds the optional weight overrides from the config file.
type WeightsRawInput struct {
	Complexity      *float64 `mapstructure:"complexity"`
	Maintainability *float64 `mapstructure:"maintainability"`
	Duplication     *float64 `mapstructure:"duplication"`
}

// ThresholdsRawInput holds the optional threshold overrides from the config file.
type ThresholdsRawInput struct {
	Complexity      *float64 `mapstructure:"complexity"`
	Maintainability *float64 `mapstructure:"maintainability"`
	Duplication     *float64 `mapstructure:"duplication"`
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	RootPath   string
	Extensions []string
	Excludes   []string
	Workers    int
	Timeout    time.Duration // 0 means no deadline

	ComplexityThreshold      float64
	MaintainabilityThreshold float64
	DuplicationThreshold     float64
	TopFiles                 int
	Weights                  Weights
	MinFragmentLines         int
	LargeFileLines           int

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	FailUnder  int // Exit non-zero below this overall score (0 = disabled)

	ReportBackend   schema.DatabaseBackend
	ReportDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RootPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Extensions       string `mapstructure:"extensions"`
	Exclude          string `mapstructure:"exclude"`
	Workers          int    `mapstructure:"workers"`
	Timeout          string `mapstructure:"timeout"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	TopFiles         int    `mapstructure:"top-files"`
	MinFragmentLines int    `mapstructure:"min-fragment-lines"`
	LargeFileLines   int    `mapstructure:"large-file-lines"`
	ReportBackend    string `mapstructure:"report-backend"`
	ReportDBConnect  string `mapstructure:"report-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Emoji            string `mapstructure:"emoji"`
	Color            string `mapstructure:"color"`

	// --- Fields from analyzeCmd.Flags() ---
	FailUnder int `mapstructure:"fail-under"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`

	// --- Thresholds from config file ---
	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
}

// DefaultConfig returns a valid config with every default applied.
// Library callers like the MCP server start from it.
func DefaultConfig() *Config {
	return &Config{
		RootPath:                 ".",
		Extensions:               append([]string(nil), DefaultExtensions...),
		Excludes:                 []string{},
		Workers:                  DefaultWorkers,
		ComplexityThreshold:      DefaultComplexityThreshold,
		MaintainabilityThreshold: DefaultMaintainabilityThreshold,
		DuplicationThreshold:     DefaultDuplicationThreshold,
		TopFiles:                 DefaultTopFiles,
		Weights: Weights{
			Complexity:      DefaultComplexityWeight,
			Maintainability: DefaultMaintainabilityWeight,
			Duplication:     DefaultDuplicationWeight,
		},
		MinFragmentLines: DefaultMinFragmentLines,
		LargeFileLines:   DefaultLargeFileLines,
		Output:           schema.TextOut,
		Precision:        DefaultPrecision,
		ReportBackend:    schema.NoneBackend,
		HistoryBackend:   schema.NoneBackend,
	}
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Extensions != nil {
		clone.Extensions = make([]string, len(c.Extensions))
		copy(clone.Extensions, c.Extensions)
	}
	if c.Excludes != nil {
		clone.Excludes = make([]string, len(c.Excludes))
		copy(clone.Excludes, c.Excludes)
	}
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFileSelection(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	if err := processWeights(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveRootPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	cfg.Timeout = 0
	if input.Timeout != "" {
		timeout, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", input.Timeout, err)
		}
		if timeout < 0 {
			return fmt.Errorf("timeout cannot be negative (received %s)", input.Timeout)
		}
		cfg.Timeout = timeout
	}

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.TopFiles < 0 {
		return fmt.Errorf("top-files cannot be negative (received %d)", input.TopFiles)
	}
	cfg.TopFiles = input.TopFiles

	if input.MinFragmentLines < 1 {
		return fmt.Errorf("min-fragment-lines must be at least 1 (received %d)", input.MinFragmentLines)
	}
	cfg.MinFragmentLines = input.MinFragmentLines

	if input.LargeFileLines < 1 {
		return fmt.Errorf("large-file-lines must be at least 1 (received %d)", input.LargeFileLines)
	}
	cfg.LargeFileLines = input.LargeFileLines

	if input.FailUnder < 0 || input.FailUnder > 100 {
		return fmt.Errorf("fail-under must be between 0 and 100 (received %d)", input.FailUnder)
	}
	cfg.FailUnder = input.FailUnder

	return nil
}

// processFileSelection normalizes extensions and validates exclude globs.
func processFileSelection(cfg *Config, input *ConfigRawInput) error {
	cfg.Extensions = ParseExtensions(input.Extensions)

	cfg.Excludes = []string{}
	for part := range strings.SplitSeq(input.Exclude, ",") {
		pattern := strings.TrimSpace(part)
		if pattern == "" {
			continue
		}
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return fmt.Errorf("invalid exclude pattern '%s'", pattern)
		}
		cfg.Excludes = append(cfg.Excludes, pattern)
	}
	return nil
}

// ParseExtensions splits a comma-separated list into lower-case extensions with a
// leading dot. An empty list yields the defaults.
func ParseExtensions(list string) []string {
	var exts []string
	for part := range strings.SplitSeq(list, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return exts
}

// processThresholds applies config file overrides on top of the defaults.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	cfg.ComplexityThreshold = DefaultComplexityThreshold
	cfg.MaintainabilityThreshold = DefaultMaintainabilityThreshold
	cfg.DuplicationThreshold = DefaultDuplicationThreshold

	if input.Thresholds.Complexity != nil {
		cfg.ComplexityThreshold = *input.Thresholds.Complexity
	}
	if input.Thresholds.Maintainability != nil {
		cfg.MaintainabilityThreshold = *input.Thresholds.Maintainability
	}
	if input.Thresholds.Duplication != nil {
		cfg.DuplicationThreshold = *input.Thresholds.Duplication
	}

	for name, value := range map[string]float64{
		"complexity":      cfg.ComplexityThreshold,
		"maintainability": cfg.MaintainabilityThreshold,
		"duplication":     cfg.DuplicationThreshold,
	} {
		if value < 0 || value > 100 {
			return fmt.Errorf("%s threshold must be between 0 and 100, got %.1f", name, value)
		}
	}
	return nil
}

// processWeights applies config file overrides and validates the sum.
func processWeights(cfg *Config, input *ConfigRawInput) error {
	w := Weights{
		Complexity:      DefaultComplexityWeight,
		Maintainability: DefaultMaintainabilityWeight,
		Duplication:     DefaultDuplicationWeight,
	}
	if input.Weights.Complexity != nil {
		w.Complexity = *input.Weights.Complexity
	}
	if input.Weights.Maintainability != nil {
		w.Maintainability = *input.Weights.Maintainability
	}
	if input.Weights.Duplication != nil {
		w.Duplication = *input.Weights.Duplication
	}
	if err := w.Validate(); err != nil {
		return err
	}
	cfg.Weights = w
	return nil
}

// Validate checks that every weight is non-negative and that they sum to 1.
func (w Weights) Validate() error {
	if w.Complexity < 0 || w.Maintainability < 0 || w.Duplication < 0 {
		return fmt.Errorf("weights cannot be negative")
	}
	sum := w.Complexity + w.Maintainability + w.Duplication
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// validateBackendConfigs validates report and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.ReportBackend = schema.DatabaseBackend(strings.ToLower(input.ReportBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.ReportBackend]; !ok {
		return fmt.Errorf("invalid report backend '%s'. must be sqlite, mysql, postgresql, none", input.ReportBackend)
	}
	cfg.ReportDBConnect = input.ReportDBConnect
	if err := ValidateDatabaseConnectionString(cfg.ReportBackend, cfg.ReportDBConnect); err != nil {
		return err
	}

	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Both stores create their own tables, so two SQLite stores must not share a file
	if cfg.ReportBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		reportPath := cfg.ReportDBConnect
		if reportPath == "" {
			reportPath = GetReportDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if reportPath == historyPath {
			return fmt.Errorf("report and history storage must use different SQLite database files. Both resolve to %q", reportPath)
		}
	}
	return nil
}

// resolveRootPath turns the positional argument into an absolute path.
// Existence is checked by discovery so the error type stays consistent.
func resolveRootPath(cfg *Config, input *ConfigRawInput) error {
	root := input.RootPathStr
	if root == "" {
		root = "."
	}
	absPath, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve path '%s': %w", root, err)
	}
	cfg.RootPath = absPath
	return nil
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
