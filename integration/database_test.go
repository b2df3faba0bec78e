//go:build database

package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestCodehealthWithMySQL runs both stores against a MySQL backend.
func TestCodehealthWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "codehealth",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/codehealth", host, port.Port())
	runStoreLifecycle(t, "mysql", connStr)
}

// TestCodehealthWithPostgres runs both stores against a PostgreSQL backend.
func TestCodehealthWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runStoreLifecycle(t, "postgresql", connStr)
}

// runStoreLifecycle drives every store command against one database.
func runStoreLifecycle(t *testing.T, backend, connStr string) {
	t.Helper()
	root := writeFixture(t)
	home := t.TempDir()
	env := []string{
		"CODEHEALTH_REPORT_BACKEND=" + backend,
		"CODEHEALTH_REPORT_DB_CONNECT=" + connStr,
		"CODEHEALTH_HISTORY_BACKEND=" + backend,
		"CODEHEALTH_HISTORY_DB_CONNECT=" + connStr,
	}

	mustRun(t, root, home, env, "report", "clear")
	mustRun(t, root, home, env, "history", "clear")
	mustRun(t, root, home, env, "history", "migrate")

	analyzed := mustRun(t, root, home, env, "analyze", "--output", "json")
	shown := mustRun(t, root, home, env, "report", "show", "--output", "json")
	assert.JSONEq(t, analyzed.Stdout, shown.Stdout)

	reportStatus := mustRun(t, root, home, env, "report", "status")
	assert.Contains(t, reportStatus.Stdout, "Stored Reports: 1")

	historyStatus := mustRun(t, root, home, env, "history", "status")
	assert.Contains(t, historyStatus.Stdout, "Total Runs: 1")

	prefix := filepath.Join(t.TempDir(), "history")
	mustRun(t, root, home, env, "history", "export", "--output-file", prefix)

	mustRun(t, root, home, env, "history", "migrate", "--target-version", "0")
}
