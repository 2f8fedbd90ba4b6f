package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/model"
)

// Defaults for Spider.
const (
	// UnlimitedDepth lets an unscoped crawl run until no unseen URL remains.
	// Any negative depth has the same meaning.
	UnlimitedDepth = -1

	// DefaultMaxDepth is unlimited; MaxPages is the usual bound.
	DefaultMaxDepth = UnlimitedDepth

	// DefaultMaxRetries is the number of extra attempts after a failed fetch.
	DefaultMaxRetries = 2
)

// PageHandler processes one fetched page: extraction, assembly, naming and
// output. Errors are page-local; the Spider logs them and continues.
type PageHandler interface {
	HandlePage(ctx context.Context, entry model.FrontierEntry, page *fetch.Page) error
}

// FailureHandler is implemented by handlers that want to know about pages
// that could not be fetched after all retries.
type FailureHandler interface {
	HandleFailure(ctx context.Context, entry model.FrontierEntry, err error)
}

// PageHandlerFunc adapts a function to PageHandler.
type PageHandlerFunc func(ctx context.Context, entry model.FrontierEntry, page *fetch.Page) error

// HandlePage calls fn.
func (fn PageHandlerFunc) HandlePage(ctx context.Context, entry model.FrontierEntry, page *fetch.Page) error {
	return fn(ctx, entry, page)
}

// Spider drives one crawl session at a time.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	fetcher fetch.Fetcher
	handler PageHandler
	logger  *slog.Logger

	// policy selects which links are followed.
	policy Policy

	// maxDepth limits unscoped crawls. 0 means only the seed page and a
	// negative value means no limit.
	maxDepth int

	// maxRetries is the number of re-enqueues allowed per failed URL.
	maxRetries int

	// frontierOpts configure the Frontier of every session.
	frontierOpts []FrontierOption
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithPolicy sets the link-following policy.
func WithPolicy(p Policy) SpiderOption {
	return func(s *Spider) {
		s.policy = p
	}
}

// WithMaxDepth sets the maximum crawl depth for PolicyUnscoped.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
// A negative depth (UnlimitedDepth) removes the limit.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxRetries sets how many times a failed fetch is retried.
// Failures that fetch.Permanent reports are never retried.
func WithMaxRetries(n int) SpiderOption {
	return func(s *Spider) {
		s.maxRetries = n
	}
}

// WithFrontierOptions sets options applied to each session's Frontier.
func WithFrontierOptions(opts ...FrontierOption) SpiderOption {
	return func(s *Spider) {
		s.frontierOpts = append(s.frontierOpts, opts...)
	}
}

// WithLogger sets the logger for per-page outcomes.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches with fetcher and hands every
// fetched page to handler.
func NewSpider(fetcher fetch.Fetcher, handler PageHandler, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:    fetcher,
		handler:    handler,
		policy:     PolicyScoped,
		maxDepth:   DefaultMaxDepth,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Result summarizes a finished crawl session.
type Result struct {
	// Seed is the session's starting URL.
	Seed string

	// Handled is the number of pages the handler processed without error.
	Handled int

	// HandlerErrors is the number of pages the handler failed on.
	HandlerErrors int

	// FetchFailures lists URLs that could not be fetched after all retries.
	FetchFailures []string

	// Stats is the final frontier snapshot.
	Stats FrontierStats

	// Duration is the wall time of the session.
	Duration time.Duration
}

// Crawl runs one session from seedURL until the frontier is empty or ctx
// is cancelled. Pages are processed one at a time; ctx is checked between
// pages only, so a page that started processing always finishes.
//
// Only an invalid seed is returned as an error. Per-page failures are
// logged and counted in the Result. On cancellation the partial Result is
// returned together with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*Result, error) {
	start := time.Now()
	frontier := NewFrontier(s.frontierOpts...)

	seed, err := frontier.Seed(seedURL)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Seed:          seed.URL,
		FetchFailures: make([]string, 0),
	}
	finish := func() *Result {
		result.Stats = frontier.Stats()
		result.Duration = time.Since(start)
		return result
	}

	for {
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		default:
		}

		entry, ok := frontier.Next()
		if !ok {
			break
		}
		s.visit(ctx, frontier, entry, result)
	}

	return finish(), nil
}

// visit fetches one entry, schedules its links and runs the handler.
func (s *Spider) visit(ctx context.Context, frontier *Frontier, entry model.FrontierEntry, result *Result) {
	page, err := s.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		frontier.MarkFailed(entry.URL)
		if !fetch.Permanent(err) && entry.Attempt < s.maxRetries && ctx.Err() == nil && frontier.Retry(entry) {
			s.logger.Debug("retrying page", "url", entry.URL, "attempt", entry.Attempt+1, "error", err)
			return
		}
		result.FetchFailures = append(result.FetchFailures, entry.URL)
		s.logger.Error("page failed", "url", entry.URL, "error", err)
		if fh, ok := s.handler.(FailureHandler); ok {
			fh.HandleFailure(ctx, entry, err)
		}
		return
	}
	frontier.MarkDone(entry.URL)

	scheduled := 0
	for _, href := range s.candidates(entry, page) {
		if _, ok := frontier.Schedule(href, page.BaseURL(), entry.Depth+1); ok {
			scheduled++
		}
	}
	s.logger.Debug("page fetched", "url", entry.URL, "depth", entry.Depth, "scheduled", scheduled)

	if err := s.handler.HandlePage(ctx, entry, page); err != nil {
		result.HandlerErrors++
		s.logger.Error("page failed", "url", entry.URL, "error", fmt.Errorf("handle page: %w", err))
		return
	}
	result.Handled++
}

// candidates returns the raw hrefs of page that the policy follows.
func (s *Spider) candidates(entry model.FrontierEntry, page *fetch.Page) []string {
	switch s.policy {
	case PolicyUnscoped:
		if s.maxDepth >= 0 && entry.Depth >= s.maxDepth {
			return nil
		}
		return page.Links
	default:
		if !entry.IsSeed() {
			return nil
		}
		return page.NavLinks
	}
}
