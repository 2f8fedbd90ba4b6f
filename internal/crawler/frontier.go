package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/nao1215/mdscrape/internal/model"
)

// ErrInvalidSeed is returned when the seed URL is not an absolute HTTP(S) URL.
var ErrInvalidSeed = errors.New("seed must be an absolute http or https URL")

// Frontier holds the crawl state of one session: the visited set, the
// pending queue and the outcome of every fetched URL.
//
// Design decision: All state lives behind one mutex because:
//  1. Scheduling must check and insert into the visited set atomically
//  2. Queue and visited set have to agree on what is pending
//  3. Contention is negligible next to network I/O
type Frontier struct {
	mu sync.Mutex

	// allowedHosts holds lowercased hostnames links may point to.
	// Filled with the seed hostname when empty at Seed time.
	allowedHosts map[string]struct{}

	// ignorePatterns are URL path patterns never scheduled.
	ignorePatterns []string

	// followPatterns, when set, are the only URL paths scheduled.
	followPatterns []string

	// maxPages caps the number of URLs ever scheduled. Zero is unlimited.
	maxPages int

	// visited holds every URL ever scheduled in this session.
	visited map[string]struct{}

	// queue holds entries waiting to be fetched, in FIFO order.
	queue []model.FrontierEntry

	// done holds URLs whose page was fetched.
	done map[string]struct{}

	// failed counts fetch failures per URL not yet done.
	failed map[string]int
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithAllowedHosts sets the hostnames links may point to.
// Hostnames are compared case-insensitively and without port.
func WithAllowedHosts(hosts ...string) FrontierOption {
	return func(f *Frontier) {
		for _, h := range hosts {
			if h = strings.TrimSpace(h); h != "" {
				f.allowedHosts[strings.ToLower(h)] = struct{}{}
			}
		}
	}
}

// WithIgnorePatterns sets URL path patterns that are never scheduled.
// Patterns use glob syntax (e.g., "/blog/*", "*.pdf").
func WithIgnorePatterns(patterns []string) FrontierOption {
	return func(f *Frontier) {
		f.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts scheduling to URL paths matching at least
// one pattern. An empty slice allows every path.
func WithFollowPatterns(patterns []string) FrontierOption {
	return func(f *Frontier) {
		f.followPatterns = patterns
	}
}

// WithMaxPages caps the number of URLs scheduled in the session.
func WithMaxPages(maxPages int) FrontierOption {
	return func(f *Frontier) {
		f.maxPages = maxPages
	}
}

// NewFrontier creates an empty Frontier.
func NewFrontier(opts ...FrontierOption) *Frontier {
	f := &Frontier{
		allowedHosts: make(map[string]struct{}),
		visited:      make(map[string]struct{}),
		queue:        make([]model.FrontierEntry, 0),
		done:         make(map[string]struct{}),
		failed:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Seed schedules the session's starting URL at depth 0.
// If no allowed hosts were configured, the seed's hostname becomes the
// only allowed host. Path patterns do not apply to the seed.
func (f *Frontier) Seed(seedURL string) (model.FrontierEntry, error) {
	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return model.FrontierEntry{}, fmt.Errorf("invalid seed URL %q: %w", seedURL, err)
	}
	if !isHTTP(u) {
		return model.FrontierEntry{}, fmt.Errorf("%q: %w", seedURL, ErrInvalidSeed)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.allowedHosts) == 0 {
		f.allowedHosts[strings.ToLower(u.Hostname())] = struct{}{}
	}

	entry := model.FrontierEntry{URL: u.String()}
	f.enqueueLocked(entry)
	return entry, nil
}

// Schedule resolves href against origin and enqueues it if it is a new,
// allowed URL. It reports whether an entry was created.
//
// Links that are not HTTP(S), point outside the allowed hosts, are excluded
// by path patterns, exceed the page cap or were already scheduled are
// dropped silently.
func (f *Frontier) Schedule(href, origin string, depth int) (model.FrontierEntry, bool) {
	base, err := url.Parse(origin)
	if err != nil {
		return model.FrontierEntry{}, false
	}
	u := resolveLink(base, href)
	if u == nil {
		return model.FrontierEntry{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hostAllowedLocked(u.Hostname()) {
		return model.FrontierEntry{}, false
	}
	if !pathAllowed(u.Path, f.ignorePatterns, f.followPatterns) {
		return model.FrontierEntry{}, false
	}

	entry := model.FrontierEntry{
		URL:       u.String(),
		OriginURL: origin,
		Depth:     depth,
	}
	if !f.enqueueLocked(entry) {
		return model.FrontierEntry{}, false
	}
	return entry, true
}

// enqueueLocked adds entry to the visited set and the queue unless it was
// already scheduled or the page cap is reached. f.mu must be held.
func (f *Frontier) enqueueLocked(entry model.FrontierEntry) bool {
	if _, seen := f.visited[entry.URL]; seen {
		return false
	}
	if f.maxPages > 0 && len(f.visited) >= f.maxPages {
		return false
	}
	f.visited[entry.URL] = struct{}{}
	f.queue = append(f.queue, entry)
	return true
}

// hostAllowedLocked reports whether host is in the allow-list. f.mu must be held.
func (f *Frontier) hostAllowedLocked(host string) bool {
	_, ok := f.allowedHosts[strings.ToLower(host)]
	return ok
}

// Next pops the oldest pending entry.
// It reports false when the queue is empty.
func (f *Frontier) Next() (model.FrontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return model.FrontierEntry{}, false
	}
	entry := f.queue[0]
	f.queue = f.queue[1:]
	return entry, true
}

// MarkDone records that pageURL was fetched.
func (f *Frontier) MarkDone(pageURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.done[pageURL] = struct{}{}
	delete(f.failed, pageURL)
}

// MarkFailed records a failed fetch of pageURL and returns how many times
// it has failed. A failed URL stays in the visited set but is not done,
// so Retry can re-enqueue it.
func (f *Frontier) MarkFailed(pageURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failed[pageURL]++
	return f.failed[pageURL]
}

// Retry re-enqueues a failed entry with its attempt count incremented.
// It reports false if the URL was never scheduled or is already done.
// The visited set is not touched.
func (f *Frontier) Retry(entry model.FrontierEntry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[entry.URL]; !ok {
		return false
	}
	if _, ok := f.done[entry.URL]; ok {
		return false
	}
	entry.Attempt++
	f.queue = append(f.queue, entry)
	return true
}

// FrontierStats is a snapshot of a Frontier's counters.
type FrontierStats struct {
	// Scheduled is the size of the visited set.
	Scheduled int

	// Pending is the number of queued entries.
	Pending int

	// Done is the number of URLs fetched successfully.
	Done int

	// Failed is the number of URLs whose last fetch failed.
	Failed int
}

// Stats returns current frontier statistics.
func (f *Frontier) Stats() FrontierStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FrontierStats{
		Scheduled: len(f.visited),
		Pending:   len(f.queue),
		Done:      len(f.done),
		Failed:    len(f.failed),
	}
}
