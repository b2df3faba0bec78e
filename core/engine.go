package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/huangsam/codehealth/core/algo"
	"github.com/huangsam/codehealth/core/discover"
	"github.com/huangsam/codehealth/core/dup"
	"github.com/huangsam/codehealth/core/metrics"
	"github.com/huangsam/codehealth/core/syntax"
	"github.com/huangsam/codehealth/internal/contract"
	"github.com/huangsam/codehealth/schema"
	"golang.org/x/sync/errgroup"
)

// channelDepth is the per-worker buffer between pipeline stages.
const channelDepth = 4

// Run is the full outcome of one analysis.
// Files hold the raw metrics of the analyzed files in path order.
// Warnings hold the skipped directories followed by the skipped files in path order.
type Run struct {
	Result   *schema.AnalysisResult
	Files    []schema.FileMetric
	Warnings []error
}

// fileOutcome is what a worker keeps of one file once its text is dropped.
type fileOutcome struct {
	rel       string
	metric    schema.FileMetric
	fragments []dup.Fragment
	warning   error // set when the file was skipped
}

// Analyze runs the full pipeline on root and returns its result.
// It either returns a complete result or an error, never a partial result.
func Analyze(ctx context.Context, root string, cfg *contract.Config) (*schema.AnalysisResult, error) {
	run, err := AnalyzeRun(ctx, root, cfg)
	if err != nil {
		return nil, err
	}
	return run.Result, nil
}

// AnalyzeRun is Analyze with the non-fatal warnings of the run attached.
func AnalyzeRun(ctx context.Context, root string, cfg *contract.Config) (*Run, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	run, err := analyze(ctx, root, cfg)
	if err != nil {
		if cfg.Timeout > 0 && errors.Is(err, context.DeadlineExceeded) {
			return nil, &contract.TimeoutError{After: cfg.Timeout}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("analysis of %s aborted: %w", root, err)
		}
		return nil, err
	}
	return run, nil
}

// analyze streams discovered paths into a worker pool and collects the outcomes.
// Each worker owns its parser, and the fingerprint index is built by this goroutine only.
func analyze(ctx context.Context, root string, cfg *contract.Config) (*Run, error) {
	workers := max(cfg.Workers, 1)
	paths := make(chan string, workers*channelDepth)
	outcomes := make(chan fileOutcome, workers*channelDepth)

	g, gctx := errgroup.WithContext(ctx)

	var walkWarnings []error
	g.Go(func() error {
		defer close(paths)
		warnings, err := discover.Walk(gctx, root, discover.OptionsFromConfig(cfg), func(rel string) error {
			select {
			case paths <- rel:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		walkWarnings = warnings
		return err
	})

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			parser, err := syntax.NewParser()
			if err != nil {
				return err
			}
			defer parser.Close()

			for rel := range paths {
				out, err := extractFile(gctx, parser, root, rel, cfg.MinFragmentLines)
				if err != nil {
					return err
				}
				select {
				case outcomes <- out:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(outcomes)
		return nil
	})

	var collected []fileOutcome
	for out := range outcomes {
		collected = append(collected, out)
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].rel < collected[j].rel
	})
	return assemble(collected, walkWarnings, cfg)
}

// assemble merges the ordered outcomes into the final result.
func assemble(collected []fileOutcome, walkWarnings []error, cfg *contract.Config) (*Run, error) {
	warnings := append([]error(nil), walkWarnings...)
	detector := dup.NewDetector()
	fileMetrics := make([]schema.FileMetric, 0, len(collected))
	totalLines := 0
	var firstFileWarning error

	for _, out := range collected {
		if out.warning != nil {
			warnings = append(warnings, out.warning)
			if firstFileWarning == nil {
				firstFileWarning = out.warning
			}
			continue
		}
		fileMetrics = append(fileMetrics, out.metric)
		detector.Add(out.rel, out.fragments)
		totalLines += out.metric.Lines
	}

	if len(fileMetrics) == 0 && firstFileWarning != nil {
		return nil, fmt.Errorf("all %d discovered files were skipped: %w", len(collected), firstFileWarning)
	}

	dupRes := detector.Detect(totalLines)
	skipped := len(collected) - len(fileMetrics)
	result := algo.Aggregate(fileMetrics, dupRes, len(collected), skipped, cfg)
	return &Run{Result: result, Files: fileMetrics, Warnings: warnings}, nil
}

// extractFile reads and measures one file. Unreadable and undecodable files
// come back as a skipped outcome rather than an error.
func extractFile(ctx context.Context, parser *syntax.Parser, root, rel string, minFragmentLines int) (fileOutcome, error) {
	if err := ctx.Err(); err != nil {
		return fileOutcome{}, err
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return fileOutcome{rel: rel, warning: &contract.UnreadableFileWarning{Path: rel, Err: err}}, nil
	}

	ex, err := metrics.Extract(ctx, parser, rel, content)
	if err != nil {
		var decodeErr *contract.DecodeError
		if errors.As(err, &decodeErr) {
			return fileOutcome{rel: rel, warning: decodeErr}, nil
		}
		return fileOutcome{}, err
	}

	return fileOutcome{
		rel:       rel,
		metric:    ex.Metric,
		fragments: dup.Fragments(content, ex.Bodies, minFragmentLines),
	}, nil
}
