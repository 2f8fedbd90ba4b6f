package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nao1215/mdscrape/internal/crawler"
	"github.com/nao1215/mdscrape/internal/model"
)

// SpiderFactory creates the Spider for one session around its page handler.
type SpiderFactory func(seed string, handler crawler.PageHandler) (*crawler.Spider, error)

// PipelineFactory creates the page pipeline for one session.
// It is called once per session so that per-session state such as the
// namer is never shared.
type PipelineFactory func(seed string) (*Pipeline, error)

// Runner runs complete crawl sessions.
type Runner struct {
	newSpider   SpiderFactory
	newPipeline PipelineFactory
	recorder    Recorder
	policyFor   func(seed string) crawler.Policy
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerRecorder stores session history through r.
func WithRunnerRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) {
		rn.recorder = r
	}
}

// WithRunnerPolicy sets the policy name recorded in session reports.
func WithRunnerPolicy(p crawler.Policy) RunnerOption {
	return WithRunnerPolicyFunc(func(string) crawler.Policy { return p })
}

// WithRunnerPolicyFunc sets a per-seed lookup of the recorded policy name,
// for runs where site configuration selects the policy.
func WithRunnerPolicyFunc(fn func(seed string) crawler.Policy) RunnerOption {
	return func(rn *Runner) {
		rn.policyFor = fn
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(rn *Runner) {
		rn.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(newSpider SpiderFactory, newPipeline PipelineFactory, opts ...RunnerOption) *Runner {
	r := &Runner{
		newSpider:   newSpider,
		newPipeline: newPipeline,
		policyFor:   func(string) crawler.Policy { return crawler.PolicyScoped },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run crawls one seed and returns its report. It never returns nil;
// setup failures are stored in the report's Error.
func (r *Runner) Run(ctx context.Context, seed string) *model.SessionReport {
	policy := r.policyFor(seed)
	report := model.NewSessionReport(uuid.NewString(), seed, string(policy))
	logger := r.logger.With("session", report.ID, "seed", seed)

	if r.recorder != nil {
		if err := r.recorder.StartSession(ctx, report); err != nil {
			logger.Warn("failed to record session start", "error", err)
		}
	}
	defer r.finish(ctx, report, logger)

	p, err := r.newPipeline(seed)
	if err != nil {
		report.SetError(err)
		return report
	}

	opts := []SessionOption{WithSessionLogger(logger)}
	if r.recorder != nil {
		opts = append(opts, WithRecorder(r.recorder))
	}
	session := NewSession(report, p, opts...)

	spider, err := r.newSpider(seed, session)
	if err != nil {
		report.SetError(err)
		return report
	}

	logger.Info("starting crawl", "policy", policy)
	result, err := spider.Crawl(ctx, seed)
	if result != nil {
		report.Stats = model.CrawlStats{
			Scheduled:     result.Stats.Scheduled,
			Fetched:       result.Stats.Done,
			FetchFailed:   len(result.FetchFailures),
			HandlerErrors: result.HandlerErrors,
			Pending:       result.Stats.Pending,
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Cancelled = true
		} else {
			report.SetError(err)
		}
	}
	return report
}

// finish stamps the report and records the session end.
func (r *Runner) finish(ctx context.Context, report *model.SessionReport, logger *slog.Logger) {
	report.Finish()

	if report.Error != nil {
		logger.Error("crawl failed", "error", report.Error)
	}
	saved, failed := report.Counts()
	logger.Info("crawl finished",
		"saved", saved,
		"failed", failed,
		"scheduled", report.Stats.Scheduled,
		"pending", report.Stats.Pending,
		"cancelled", report.Cancelled,
		"elapsed", report.Duration(),
	)

	if r.recorder == nil {
		return
	}
	if err := r.recorder.FinishSession(context.WithoutCancel(ctx), report); err != nil {
		logger.Warn("failed to record session end", "error", err)
	}
}
