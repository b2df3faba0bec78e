package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// effectiveConfig is the validated configuration in the shape of a .codehealth file.
// Connection strings are left out because they may carry credentials.
type effectiveConfig struct {
	Root             string             `yaml:"root" toml:"root"`
	Extensions       []string           `yaml:"extensions" toml:"extensions"`
	Exclude          []string           `yaml:"exclude" toml:"exclude"`
	Workers          int                `yaml:"workers" toml:"workers"`
	Timeout          string             `yaml:"timeout" toml:"timeout"`
	Output           string             `yaml:"output" toml:"output"`
	OutputFile       string             `yaml:"output-file" toml:"output-file"`
	Precision        int                `yaml:"precision" toml:"precision"`
	Width            int                `yaml:"width" toml:"width"`
	TopFiles         int                `yaml:"top-files" toml:"top-files"`
	MinFragmentLines int                `yaml:"min-fragment-lines" toml:"min-fragment-lines"`
	LargeFileLines   int                `yaml:"large-file-lines" toml:"large-file-lines"`
	FailUnder        int                `yaml:"fail-under" toml:"fail-under"`
	ReportBackend    string             `yaml:"report-backend" toml:"report-backend"`
	HistoryBackend   string             `yaml:"history-backend" toml:"history-backend"`
	Emoji            bool               `yaml:"emoji" toml:"emoji"`
	Color            bool               `yaml:"color" toml:"color"`
	Thresholds       effectiveThreshold `yaml:"thresholds" toml:"thresholds"`
	Weights          effectiveWeights   `yaml:"weights" toml:"weights"`
}

type effectiveThreshold struct {
	Complexity      float64 `yaml:"complexity" toml:"complexity"`
	Maintainability float64 `yaml:"maintainability" toml:"maintainability"`
	Duplication     float64 `yaml:"duplication" toml:"duplication"`
}

type effectiveWeights struct {
	Complexity      float64 `yaml:"complexity" toml:"complexity"`
	Maintainability float64 `yaml:"maintainability" toml:"maintainability"`
	Duplication     float64 `yaml:"duplication" toml:"duplication"`
}

func newEffectiveConfig(c *contract.Config) effectiveConfig {
	timeout := ""
	if c.Timeout > 0 {
		timeout = c.Timeout.String()
	}
	return effectiveConfig{
		Root:             c.RootPath,
		Extensions:       c.Extensions,
		Exclude:          c.Excludes,
		Workers:          c.Workers,
		Timeout:          timeout,
		Output:           string(c.Output),
		OutputFile:       c.OutputFile,
		Precision:        c.Precision,
		Width:            c.Width,
		TopFiles:         c.TopFiles,
		MinFragmentLines: c.MinFragmentLines,
		LargeFileLines:   c.LargeFileLines,
		FailUnder:        c.FailUnder,
		ReportBackend:    string(c.ReportBackend),
		HistoryBackend:   string(c.HistoryBackend),
		Emoji:            c.UseEmojis,
		Color:            c.UseColors,
		Thresholds: effectiveThreshold{
			Complexity:      c.ComplexityThreshold,
			Maintainability: c.MaintainabilityThreshold,
			Duplication:     c.DuplicationThreshold,
		},
		Weights: effectiveWeights{
			Complexity:      c.Weights.Complexity,
			Maintainability: c.Weights.Maintainability,
			Duplication:     c.Weights.Duplication,
		},
	}
}

// writeEffectiveConfig encodes the config as yaml or toml.
func writeEffectiveConfig(w io.Writer, c *contract.Config, format string) error {
	doc := newEffectiveConfig(c)
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "toml":
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("invalid config format '%s'. must be yaml, toml", format)
	}
}

// configCmd prints the effective configuration.
var configCmd = &cobra.Command{
	Use:   "config [path]",
	Short: "Print the effective configuration after merging file, env and flags",
	Long: `Resolve defaults, .codehealth.yaml, CODEHEALTH_* environment variables and flags,
validate them and print the result. Connection strings are never printed.

Examples:
  codehealth config
  codehealth config --format toml
  CODEHEALTH_WORKERS=2 codehealth config ./web`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := writeEffectiveConfig(os.Stdout, cfg, viper.GetString("format")); err != nil {
			contract.LogFatal("Cannot print config", err)
		}
	},
}
