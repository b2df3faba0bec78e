package iocache

import (
	"time"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetReportStore implements the StoreManager interface.
func (m *MockStoreManager) GetReportStore() contract.ReportStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.ReportStore)
	return store
}

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.HistoryStore)
	return store
}

// MockReportStore is a mock implementation of ReportStore for testing.
type MockReportStore struct {
	mock.Mock
}

var _ contract.ReportStore = &MockReportStore{} // Compile-time check

// Get implements the ReportStore interface.
func (m *MockReportStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the ReportStore interface.
func (m *MockReportStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// GetStatus implements the ReportStore interface.
func (m *MockReportStore) GetStatus() (schema.ReportStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.ReportStatus), args.Error(1)
}

// Close implements the ReportStore interface.
func (m *MockReportStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ contract.HistoryStore = &MockHistoryStore{} // Compile-time check

// BeginRun implements the HistoryStore interface.
func (m *MockHistoryStore) BeginRun(rootPath string, startTime time.Time, configParams map[string]any) (int64, string, error) {
	args := m.Called(rootPath, startTime, configParams)
	return args.Get(0).(int64), args.String(1), args.Error(2)
}

// RecordFileScores implements the HistoryStore interface.
func (m *MockHistoryStore) RecordFileScores(runID int64, scores []schema.FileScores) error {
	args := m.Called(runID, scores)
	return args.Error(0)
}

// EndRun implements the HistoryStore interface.
func (m *MockHistoryStore) EndRun(runID int64, endTime time.Time, totals schema.RunTotals) error {
	args := m.Called(runID, endTime, totals)
	return args.Error(0)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// GetAllFileScores implements the HistoryStore interface.
func (m *MockHistoryStore) GetAllFileScores() ([]schema.FileScoresRecord, error) {
	args := m.Called()
	scores, _ := args.Get(0).([]schema.FileScoresRecord)
	return scores, args.Error(1)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
