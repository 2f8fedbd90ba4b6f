package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/model"
)

// Recorder persists session history. The database package implements it.
type Recorder interface {
	StartSession(ctx context.Context, report *model.SessionReport) error
	RecordPage(ctx context.Context, sessionID string, result model.PageResult) error
	FinishSession(ctx context.Context, report *model.SessionReport) error
}

// Session handles the pages of one crawl session.
// It implements crawler.PageHandler and crawler.FailureHandler.
type Session struct {
	pipeline *Pipeline
	recorder Recorder
	logger   *slog.Logger

	// mu guards report, which the handler methods append to.
	mu     sync.Mutex
	report *model.SessionReport
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRecorder stores every page outcome through r.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithSessionLogger sets the logger for per-page outcome lines.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a Session that runs p for every page and collects
// outcomes into report.
func NewSession(report *model.SessionReport, p *Pipeline, opts ...SessionOption) *Session {
	s := &Session{
		pipeline: p,
		report:   report,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// HandlePage runs the pipeline for a fetched page.
//
// Once started, the pipeline is not interrupted by cancellation of ctx;
// the crawler checks for cancellation between pages.
func (s *Session) HandlePage(ctx context.Context, entry model.FrontierEntry, page *fetch.Page) error {
	job := NewPageJob(entry, page)
	err := s.pipeline.Execute(context.WithoutCancel(ctx), job)

	result := job.Result()
	if err == nil {
		paragraphs, headings, codeBlocks := job.Document.CountBlocks()
		s.logger.Info("saved page",
			"url", entry.URL,
			"path", firstPath(result.Paths),
			"title", result.Title,
			"paragraphs", paragraphs,
			"headings", headings,
			"code_blocks", codeBlocks,
		)
	}
	s.add(ctx, result)
	return err
}

// HandleFailure records a page that could not be fetched.
func (s *Session) HandleFailure(ctx context.Context, entry model.FrontierEntry, err error) {
	s.add(ctx, model.PageResult{
		URL:         entry.URL,
		OriginURL:   entry.OriginURL,
		Depth:       entry.Depth,
		Status:      model.PageFetchFailed,
		Error:       err.Error(),
		ProcessedAt: time.Now(),
	})
}

// add appends a result to the report and the recorder.
func (s *Session) add(ctx context.Context, result model.PageResult) {
	s.mu.Lock()
	s.report.AddPage(result)
	id := s.report.ID
	s.mu.Unlock()

	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordPage(context.WithoutCancel(ctx), id, result); err != nil {
		s.logger.Warn("failed to record page", "url", result.URL, "error", err)
	}
}

// Report returns the session report.
func (s *Session) Report() *model.SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

func firstPath(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
