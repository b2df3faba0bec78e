package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/codehealth/core/discover"
	"github.com/huangsam/codehealth/core/watch"
	"github.com/huangsam/codehealth/internal/contract"
)

// ExecuteWatch runs one analysis, then analyzes again after every debounced
// batch of source changes until ctx is cancelled.
func ExecuteWatch(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, debounce time.Duration) error {
	return watchWith(ctx, cfg, mgr, debounce, ExecuteAnalyze)
}

func watchWith(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, debounce time.Duration, execute ExecutorFunc) error {
	w, err := watch.New(cfg.RootPath, discover.OptionsFromConfig(cfg), debounce)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := runOnce(ctx, cfg, mgr, execute); err != nil {
		return err
	}

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		_, _ = fmt.Fprintf(os.Stderr, "%d file(s) changed, analyzing again\n", len(changed))
		return runOnce(ctx, cfg, mgr, execute)
	})
}

// runOnce keeps watching through gate failures and projects that are empty for now.
// Any other error ends the watch.
func runOnce(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, execute ExecutorFunc) error {
	err := execute(ctx, cfg, mgr)
	var gate *FailUnderError
	var empty *contract.EmptyProjectError
	if errors.As(err, &gate) || errors.As(err, &empty) {
		contract.LogWarn("Analysis", err)
		return nil
	}
	return err
}
