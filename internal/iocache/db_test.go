package iocache

import (
	"strings"
	"testing"
	"time"

	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "test_table", false},
		{"valid name with numbers", "test_table_123", false},
		{"valid name starting with underscore", "_test_table", false},
		{"valid mixed case", "TestTable_123", false},
		{"very long name", strings.Repeat("a", 1000), false},
		{"empty name", "", true},
		{"starts with number", "123_table", true},
		{"contains dash", "test-table", true},
		{"contains space", "test table", true},
		{"sql injection attempt", "test'; DROP TABLE users; --", true},
		{"contains dot", "test.table", true},
		{"unicode", "test_表", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"codehealth_runs"`, quoteTableName("codehealth_runs", schema.SQLiteBackend))
	assert.Equal(t, "`codehealth_runs`", quoteTableName("codehealth_runs", schema.MySQLBackend))
	assert.Equal(t, `"codehealth_runs"`, quoteTableName("codehealth_runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"codehealth_runs"`, quoteTableName("codehealth_runs", schema.NoneBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(schema.SQLiteBackend, 1))
	assert.Equal(t, "?, ?, ?", placeholders(schema.MySQLBackend, 3))
	assert.Equal(t, "$1, $2, $3", placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, "", placeholders(schema.SQLiteBackend, 0))
}

func TestDriverName(t *testing.T) {
	for backend, want := range map[schema.DatabaseBackend]string{
		schema.SQLiteBackend:     "sqlite",
		schema.MySQLBackend:      "mysql",
		schema.PostgreSQLBackend: "pgx",
	} {
		got, err := driverName(backend)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := driverName(schema.NoneBackend)
	assert.Error(t, err)
}

func TestFormatTimeAndScan(t *testing.T) {
	ts := time.Date(2026, 5, 4, 3, 2, 1, 123456789, time.FixedZone("X", 3600))

	formatted := formatTime(ts, schema.SQLiteBackend)
	require.IsType(t, "", formatted)

	scanner := timeScanner{backend: schema.SQLiteBackend}
	scanner.raw.String = formatted.(string)
	scanner.raw.Valid = true
	got, err := scanner.value()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, ts.Equal(*got))

	assert.Equal(t, ts, formatTime(ts, schema.PostgreSQLBackend))

	empty := timeScanner{backend: schema.SQLiteBackend}
	got, err = empty.value()
	require.NoError(t, err)
	assert.Nil(t, got)

	bad := timeScanner{backend: schema.SQLiteBackend}
	bad.raw.String, bad.raw.Valid = "yesterday", true
	_, err = bad.value()
	assert.Error(t, err)
}

func TestOpenDatabaseErrors(t *testing.T) {
	_, err := openDatabase(schema.NoneBackend, "", "")
	assert.Error(t, err)

	_, err = openDatabase(schema.MySQLBackend, "invalid://connection", "")
	assert.Error(t, err)
}
