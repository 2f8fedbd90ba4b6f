package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/mdscrape/internal/model"
)

// DefaultConcurrency is the default number of sessions run at once.
const DefaultConcurrency = 4

// SessionRunner runs one crawl session. *Runner implements it.
type SessionRunner interface {
	Run(ctx context.Context, seed string) *model.SessionReport
}

// BatchProcessor runs crawl sessions for several seeds concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Runner because:
// 1. It keeps the Runner focused on a single session
// 2. Each session owns its frontier and namer, so sessions share nothing
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// runner runs each session.
	runner SessionRunner

	// concurrency is the maximum number of concurrent sessions.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed session reports in seed order.
	// Access is synchronized via mutex.
	results []*model.SessionReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent sessions.
// Default is DefaultConcurrency if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(runner SessionRunner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runner:      runner,
		concurrency: DefaultConcurrency,
		results:     make([]*model.SessionReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch crawls every seed and returns one report per seed, in seed
// order. Seeds not started before cancellation have a nil report.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Session failures are recorded in their reports and never cancel the
// other sessions.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.SessionReport, error) {
	bp.logger.Info("starting batch processing",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	bp.mu.Lock()
	bp.results = make([]*model.SessionReport, len(seeds))
	bp.mu.Unlock()

	err := bp.ProcessBatchWithCallback(ctx, seeds, func(report *model.SessionReport, i int) {
		bp.mu.Lock()
		bp.results[i] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("batch processing complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	bp.mu.Lock()
	defer bp.mu.Unlock()
	return bp.results, err
}

// ProcessBatchWithCallback crawls every seed and calls callback as each
// session completes. The callback is called from the session's goroutine,
// so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(report *model.SessionReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("crawling seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			report := bp.runner.Run(ctx, seed)
			callback(report, i)

			if report.Error != nil {
				bp.logger.Warn("session failed",
					"seed", seed,
					"error", report.Error,
				)
			}
			// Session errors stay in the report so other sessions continue.
			return nil
		})
	}

	return g.Wait()
}
