package model

import "time"

// PageResult records what happened to one page of a crawl session.
type PageResult struct {
	// URL is the page URL as scheduled.
	URL string `json:"url"`

	// OriginURL is the page the URL was discovered on. Empty for the seed.
	OriginURL string `json:"origin_url,omitempty"`

	// Depth is the number of hops from the seed.
	Depth int `json:"depth"`

	// Title is the extracted page title. Empty when the page was not extracted.
	Title string `json:"title,omitempty"`

	// Name is the output name without extension.
	Name string `json:"name,omitempty"`

	// Paths lists every file written for the page.
	Paths []string `json:"paths,omitempty"`

	// Blocks is the number of content blocks extracted.
	Blocks int `json:"blocks"`

	// Status is the page outcome.
	Status PageStatus `json:"status"`

	// Error is the failure message when Status is not PageSaved.
	Error string `json:"error,omitempty"`

	// ProcessedAt is when the outcome was recorded.
	ProcessedAt time.Time `json:"processed_at"`
}

// Saved reports whether the page was written successfully.
func (r PageResult) Saved() bool {
	return r.Status == PageSaved
}

// CrawlStats are the frontier counters of a session when it stopped.
type CrawlStats struct {
	// Scheduled is the number of distinct URLs scheduled.
	Scheduled int `json:"scheduled"`

	// Fetched is the number of URLs fetched successfully.
	Fetched int `json:"fetched"`

	// FetchFailed is the number of URLs given up on after all retries.
	FetchFailed int `json:"fetch_failed"`

	// HandlerErrors is the number of fetched pages that could not be written.
	HandlerErrors int `json:"handler_errors"`

	// Pending is the number of URLs still queued. Non-zero only when the
	// session was cancelled.
	Pending int `json:"pending"`
}

// SessionReport summarizes one crawl session.
//
// Design decision: We keep page results inline rather than only counters
// because:
//  1. The session index lists every saved page
//  2. The history database stores one row per page
//  3. Sessions are small (one documentation site)
type SessionReport struct {
	// ID uniquely identifies the session.
	ID string `json:"id"`

	// Seed is the starting URL.
	Seed string `json:"seed"`

	// Policy is the crawl policy name.
	Policy string `json:"policy"`

	// StartedAt is when the session started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session ended.
	FinishedAt time.Time `json:"finished_at"`

	// Pages holds one result per processed or failed page, in processing order.
	Pages []PageResult `json:"pages"`

	// Stats are the crawl counters. Zero when the crawl never started.
	Stats CrawlStats `json:"stats"`

	// Cancelled is true if the session stopped before the frontier was empty.
	Cancelled bool `json:"cancelled"`

	// Error is set when the session could not run at all.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewSessionReport creates a report for a session starting now.
func NewSessionReport(id, seed, policy string) *SessionReport {
	return &SessionReport{
		ID:        id,
		Seed:      seed,
		Policy:    policy,
		StartedAt: time.Now(),
		Pages:     make([]PageResult, 0),
	}
}

// AddPage appends a page result.
func (r *SessionReport) AddPage(p PageResult) {
	r.Pages = append(r.Pages, p)
}

// SetError records a session-level error.
func (r *SessionReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish stamps the end time.
func (r *SessionReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the session ran.
func (r *SessionReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Counts returns the number of saved and failed pages.
func (r *SessionReport) Counts() (saved, failed int) {
	for _, p := range r.Pages {
		if p.Saved() {
			saved++
		} else {
			failed++
		}
	}
	return saved, failed
}

// SavedPages returns the results of pages written successfully.
func (r *SessionReport) SavedPages() []PageResult {
	saved := make([]PageResult, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Saved() {
			saved = append(saved, p)
		}
	}
	return saved
}
