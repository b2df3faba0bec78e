package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// Global Manager instance for the CLI.
var (
	Manager   = &StoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// GetReportDBFilePath returns the path to the SQLite DB file for report storage.
func GetReportDBFilePath() string {
	return contract.GetReportDBFilePath()
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	return contract.GetHistoryDBFilePath()
}

// InitStores initializes the global manager with separate report and history stores.
// An empty backend leaves the corresponding store unset.
func InitStores(reportBackend schema.DatabaseBackend, reportConnStr string, historyBackend schema.DatabaseBackend, historyConnStr string) error {
	var initErr error

	initOnce.Do(func() {
		var err error

		var reportStore contract.ReportStore
		if reportBackend != "" {
			reportStore, err = NewReportStore(reportsTable, reportBackend, reportConnStr)
			if err != nil {
				initErr = fmt.Errorf("failed to initialize report store: %w", err)
				return
			}
		}

		var historyStore contract.HistoryStore
		if historyBackend != "" {
			historyStore, err = NewHistoryStore(historyBackend, historyConnStr)
			if err != nil {
				if reportStore != nil {
					_ = reportStore.Close()
				}
				initErr = fmt.Errorf("failed to initialize history store: %w", err)
				return
			}
		}

		Manager.Lock()
		defer Manager.Unlock()
		Manager.report = reportStore
		Manager.history = historyStore
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() {
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.report != nil {
			_ = Manager.report.Close()
		}
		if Manager.history != nil {
			_ = Manager.history.Close()
		}
	})
}

// ClearReports removes stored reports for the backend.
// For SQLite it deletes the database file, for MySQL and PostgreSQL it drops the table.
func ClearReports(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, reportsTable)
}

// ClearHistory removes the run history for the backend.
// For SQLite it deletes the database file, for MySQL and PostgreSQL it drops the tables.
func ClearHistory(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	return clearBackend(backend, dbFilePath, connStr, runsTable, fileScoresTable, "schema_migrations")
}

func clearBackend(backend schema.DatabaseBackend, dbFilePath, connStr string, tables ...string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		if err := os.Remove(dbFilePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove SQLite database file %s: %w", dbFilePath, err)
		}
		return nil

	case schema.MySQLBackend, schema.PostgreSQLBackend:
		driver, _ := driverName(backend)
		for _, table := range tables {
			if err := dropSQLTable(driver, connStr, table, backend); err != nil {
				return err
			}
		}
		return nil

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported backend for clearing: %s", backend)
	}
}

// dropSQLTable connects to the SQL database and drops the table if it exists.
func dropSQLTable(driver, connStr, tableName string, backend schema.DatabaseBackend) error {
	db, err := sql.Open(driver, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteTableName(tableName, backend))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", tableName, err)
	}
	return nil
}
