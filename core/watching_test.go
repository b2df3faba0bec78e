package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/codehealth/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchAnalyzesAgainOnChange(t *testing.T) {
	root := scenarioProject(t)
	cfg := rootConfig(root)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	calls := make(chan int, 4)
	count := 0
	execute := func(_ context.Context, _ *contract.Config, _ contract.StoreManager) error {
		count++
		calls <- count
		if count == 2 {
			cancel()
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- watchWith(ctx, cfg, nil, 100*time.Millisecond, execute) }()

	require.Equal(t, 1, <-calls)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "added.ts"), []byte("export const x = 1;\n"), 0o644))

	select {
	case n := <-calls:
		assert.Equal(t, 2, n)
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis after the change")
	}
	assert.NoError(t, <-done)
}

func TestWatchStopsOnFatalFirstRun(t *testing.T) {
	cfg := rootConfig(scenarioProject(t))
	boom := errors.New("boom")
	err := watchWith(context.Background(), cfg, nil, time.Second, func(context.Context, *contract.Config, contract.StoreManager) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestRunOnceToleratesGateFailures(t *testing.T) {
	cfg := rootConfig(t.TempDir())
	gate := func(context.Context, *contract.Config, contract.StoreManager) error {
		return &FailUnderError{Score: 40, Threshold: 50}
	}
	empty := func(context.Context, *contract.Config, contract.StoreManager) error {
		return &contract.EmptyProjectError{Root: cfg.RootPath}
	}
	assert.NoError(t, runOnce(context.Background(), cfg, nil, gate))
	assert.NoError(t, runOnce(context.Background(), cfg, nil, empty))
}

func TestWatchMissingRoot(t *testing.T) {
	cfg := rootConfig(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, ExecuteWatch(context.Background(), cfg, nil, time.Second))
}
