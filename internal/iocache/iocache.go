// Package iocache persists analysis reports and run history outside of the engine.
package iocache

import (
	"sync"

	"github.com/huangsam/codehealth/internal/contract"
)

// StoreManager holds the report and history stores for the CLI process.
type StoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	report       contract.ReportStore
	history      contract.HistoryStore
}

var _ contract.StoreManager = &StoreManager{} // Compile-time check

// GetReportStore returns the report store, or nil when it is not configured.
func (mgr *StoreManager) GetReportStore() contract.ReportStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.report
}

// GetHistoryStore returns the history store, or nil when it is not configured.
func (mgr *StoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
