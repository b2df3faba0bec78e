package iocache

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/klauspost/compress/zstd"
)

// reportsTable is the name of the table holding the last report per root.
const reportsTable = "codehealth_reports"

// The codec is created on first use. EncodeAll and DecodeAll are safe for concurrent use.
var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

func zstdCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd decoder: %w", codecErr)
		}
	})
	return encoder, decoder, codecErr
}

// compressReport zstd-compresses a report blob.
func compressReport(value []byte) ([]byte, error) {
	enc, _, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(value, nil), nil
}

// decompressReport reverses compressReport.
func decompressReport(compressed []byte) ([]byte, error) {
	_, dec, err := zstdCodec()
	if err != nil {
		return nil, err
	}
	return dec.DecodeAll(compressed, nil)
}

// ReportStoreImpl keeps compressed report blobs in one of the supported backends.
type ReportStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.ReportStore = &ReportStoreImpl{} // Compile-time check

// NewReportStore initializes and returns a new ReportStore based on the backend type.
func NewReportStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.ReportStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	if backend == schema.NoneBackend {
		return &ReportStoreImpl{tableName: tableName, backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetReportDBFilePath())
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(getCreateReportTableQuery(tableName, backend)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	return &ReportStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// getCreateReportTableQuery returns the CREATE TABLE query for the given backend.
func getCreateReportTableQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_key VARCHAR(64) PRIMARY KEY,
				report_value LONGBLOB NOT NULL,
				report_version INT NOT NULL,
				report_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_key TEXT PRIMARY KEY,
				report_value BYTEA NOT NULL,
				report_version INTEGER NOT NULL,
				report_timestamp BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				report_key TEXT PRIMARY KEY,
				report_value BLOB NOT NULL,
				report_version INTEGER NOT NULL,
				report_timestamp INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves and decompresses a value by key.
func (rs *ReportStoreImpl) Get(key string) ([]byte, int, int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, 0, 0, sql.ErrNoRows
	}

	var compressed []byte
	var version int
	var ts int64

	query := fmt.Sprintf(`SELECT report_value, report_version, report_timestamp FROM %s WHERE report_key = %s`,
		quoteTableName(rs.tableName, rs.backend), placeholders(rs.backend, 1))
	if err := rs.db.QueryRow(query, key).Scan(&compressed, &version, &ts); err != nil {
		return nil, 0, 0, err
	}

	value, err := decompressReport(compressed)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decompress report %s: %w", key, err)
	}
	return value, version, ts, nil
}

// Set compresses and inserts or replaces a key/value pair.
func (rs *ReportStoreImpl) Set(key string, value []byte, version int, timestamp int64) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}
	compressed, err := compressReport(value)
	if err != nil {
		return err
	}
	_, err = rs.db.Exec(rs.getUpsertQuery(), key, compressed, version, timestamp)
	return err
}

// getUpsertQuery returns the UPSERT query for the backend.
func (rs *ReportStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(rs.tableName, rs.backend)
	switch rs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (report_key, report_value, report_version, report_timestamp) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE report_value = new.report_value, report_version = new.report_version, report_timestamp = new.report_timestamp`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (report_key, report_value, report_version, report_timestamp) VALUES ($1, $2, $3, $4)
			ON CONFLICT (report_key) DO UPDATE SET report_value = EXCLUDED.report_value, report_version = EXCLUDED.report_version, report_timestamp = EXCLUDED.report_timestamp`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (report_key, report_value, report_version, report_timestamp) VALUES (?, ?, ?, ?)`, quotedTableName)
	}
}

// Close closes the underlying DB connection.
func (rs *ReportStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the report store.
func (rs *ReportStoreImpl) GetStatus() (schema.ReportStatus, error) {
	status := schema.ReportStatus{
		Backend:   string(rs.backend),
		Connected: rs.db != nil,
	}
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(rs.tableName, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedTableName)).Scan(&status.TotalEntries); err != nil {
		return status, fmt.Errorf("failed to get total entries: %w", err)
	}
	if status.TotalEntries == 0 {
		return status, nil
	}

	var lastTs, oldestTs int64
	rangeQuery := fmt.Sprintf("SELECT MAX(report_timestamp), MIN(report_timestamp) FROM %s", quotedTableName)
	if err := rs.db.QueryRow(rangeQuery).Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get entry times: %w", err)
	}
	status.LastEntryTime = time.Unix(lastTs, 0)
	status.OldestEntryTime = time.Unix(oldestTs, 0)
	status.TableSizeBytes = rs.tableSize(status.TotalEntries)

	return status, nil
}

// tableSize asks the backend for the table footprint and falls back to a rough estimate.
func (rs *ReportStoreImpl) tableSize(entries int) int64 {
	estimate := int64(entries) * 1000
	var size int64
	switch rs.backend {
	case schema.SQLiteBackend:
		row := rs.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(rs.connStr)
		if err != nil || cfg.DBName == "" {
			return estimate
		}
		row := rs.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?", cfg.DBName, rs.tableName)
		if err := row.Scan(&size); err != nil {
			return estimate
		}
	case schema.PostgreSQLBackend:
		if err := rs.db.QueryRow("SELECT pg_total_relation_size($1)", rs.tableName).Scan(&size); err != nil {
			return estimate
		}
	default:
		return estimate
	}
	return size
}
