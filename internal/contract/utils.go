package contract

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/huangsam/codehealth/schema"
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // ExcellentColor represents a healthy project.
	GoodColor      = color.New(color.FgCyan)              // GoodColor represents minor concerns.
	FairColor      = color.New(color.FgYellow)            // FairColor represents standard caution.
	PoorColor      = color.New(color.FgRed, color.Bold)   // PoorColor represents standard danger.
)

// GetColorLabel returns a colored health label for console output (table).
func GetColorLabel(label schema.HealthLabel) string {
	return labelColor(label).Sprint(string(label))
}

// GetScoreColor colors text by the health band its score falls in.
func GetScoreColor(score int, text string) string {
	return labelColor(schema.GetHealthLabel(score)).Sprint(text)
}

func labelColor(label schema.HealthLabel) *color.Color {
	switch label {
	case schema.HealthExcellent:
		return ExcellentColor
	case schema.HealthGood:
		return GoodColor
	case schema.HealthFair:
		return FairColor
	default:
		return PoorColor
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given forward-slash relative path matches any of the
// exclude patterns. Patterns ending with '/' match a directory of that name at any depth.
// Other patterns are doublestar globs matched against the full path, and patterns without
// a slash are also matched against the base name (e.g. "*.min.js").
func ShouldIgnore(relPath string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		if strings.HasSuffix(ex, "/") {
			if relPath+"/" == ex || strings.HasPrefix(relPath, ex) || strings.Contains("/"+relPath+"/", "/"+ex) {
				return true
			}
			continue
		}

		if ok, err := doublestar.Match(ex, relPath); err == nil && ok {
			return true
		}
		if !strings.Contains(ex, "/") {
			if ok, err := doublestar.Match(ex, path.Base(relPath)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetReportDBFilePath returns the path to the SQLite DB file for report storage.
func GetReportDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".codehealth_reports.db"
	}
	return filepath.Join(homeDir, ".codehealth_reports.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".codehealth_history.db"
	}
	return filepath.Join(homeDir, ".codehealth_history.db")
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 so there is room for the "..." prefix and one character.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
