package contract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	for _, label := range []schema.HealthLabel{
		schema.HealthExcellent, schema.HealthGood, schema.HealthFair, schema.HealthNeedsImprovement,
	} {
		assert.Contains(t, GetColorLabel(label), string(label))
	}
	assert.Contains(t, GetScoreColor(42, "42"), "42")
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.json")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.FileExists(t, path)
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excludes []string
		expected bool
	}{
		{"no excludes", "src/a.ts", nil, false},
		{"directory at root", "node_modules/x/index.js", []string{"node_modules/"}, true},
		{"directory itself", "node_modules", []string{"node_modules/"}, true},
		{"nested directory", "packages/app/node_modules/x.js", []string{"node_modules/"}, true},
		{"directory name prefix only", "node_modules_extra/x.js", []string{"node_modules/"}, false},
		{"base name glob", "src/vendor/jquery.min.js", []string{"*.min.js"}, true},
		{"doublestar glob", "src/gen/api/types.ts", []string{"src/gen/**"}, true},
		{"path glob does not match base", "lib/a.ts", []string{"src/*.ts"}, false},
		{"blank pattern", "a.ts", []string{"  "}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldIgnore(tt.path, tt.excludes))
		})
	}
}

func TestDBFilePaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetReportDBFilePath(), ".codehealth_reports.db"))
	assert.True(t, strings.HasSuffix(GetHistoryDBFilePath(), ".codehealth_history.db"))
	assert.NotEqual(t, GetReportDBFilePath(), GetHistoryDBFilePath())
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "src/a.ts", TruncatePath("src/a.ts", 20))
	assert.Equal(t, "...ng/file.ts", TruncatePath("a/very/long/file.ts", 13))
	assert.Equal(t, "abcdef", TruncatePath("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("")
	assert.Error(t, err)
}

func TestErrorTypes(t *testing.T) {
	var nf *NotFoundError
	assert.True(t, errors.As(error(&NotFoundError{Path: "/x"}), &nf))
	assert.Contains(t, (&EmptyProjectError{Root: "/p"}).Error(), "no analyzable files found")

	cause := errors.New("permission denied")
	warn := &UnreadableFileWarning{Path: "a.ts", Err: cause}
	assert.ErrorIs(t, warn, cause)

	timeout := &TimeoutError{After: time.Second}
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.Contains(t, timeout.Error(), "1s")

	assert.Contains(t, (&DecodeError{Path: "b.js", Reason: "NUL byte"}).Error(), "b.js")
}
