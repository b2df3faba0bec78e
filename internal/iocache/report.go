package iocache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
)

// ReportVersion is bumped whenever the stored report shape changes.
// Entries with another version are treated as missing.
const ReportVersion = 1

// ErrNoReport is returned when no usable report is stored for a root.
var ErrNoReport = errors.New("no stored report")

// ReportKey returns the store key of a project root.
func ReportKey(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(root)))
	return hex.EncodeToString(sum[:])
}

// SaveReport stores the report as the latest one for its root.
func SaveReport(store contract.ReportStore, report *schema.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return store.Set(ReportKey(report.Root), data, ReportVersion, report.GeneratedAt.Unix())
}

// LoadReport returns the latest stored report for root.
func LoadReport(store contract.ReportStore, root string) (*schema.Report, error) {
	data, version, _, err := store.Get(ReportKey(root))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrNoReport, root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if version != ReportVersion {
		return nil, fmt.Errorf("%w for %s (version %d, want %d)", ErrNoReport, root, version, ReportVersion)
	}

	var report schema.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
