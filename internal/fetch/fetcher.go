package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"
)

// Defaults for HTTPFetcher.
const (
	// DefaultUserAgent identifies the crawler to sites and robots.txt.
	DefaultUserAgent = "mdscrape/1.0 (+https://github.com/nao1215/mdscrape)"

	// DefaultMaxBodySize limits how much of a response body is read (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultMainSelector locates the main content region.
	DefaultMainSelector = "main"

	// DefaultNavSelector locates the navigation region.
	DefaultNavSelector = "nav#sidebar"
)

// Fetcher retrieves one page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPFetcher fetches pages over HTTP.
//
// Design decision: HTTPFetcher takes a prepared *http.Client because:
//  1. Proxy, cookie and header setup live in NewHTTPClient
//  2. Tests can point it at an httptest server client
//  3. One client can be shared by robots.txt and page requests
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	maxBodySize  int64
	mainSelector string
	navSelector  string

	// limiter spaces requests. Nil means no delay.
	limiter *rate.Limiter

	// obeyRobots enables robots.txt checks.
	obeyRobots bool

	// robots is nil when robots.txt is ignored.
	robots *robotsCache
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per page.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithDelay sets the minimum interval between requests. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		if d <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRobots enables or disables robots.txt checks.
func WithRobots(enabled bool) Option {
	return func(f *HTTPFetcher) {
		f.obeyRobots = enabled
	}
}

// WithSelectors sets the CSS selectors for the main and navigation regions.
// Empty values keep the current selector.
func WithSelectors(mainSelector, navSelector string) Option {
	return func(f *HTTPFetcher) {
		if mainSelector != "" {
			f.mainSelector = mainSelector
		}
		if navSelector != "" {
			f.navSelector = navSelector
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher. robots.txt is honoured by default.
func NewHTTPFetcher(client *http.Client, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:       client,
		userAgent:    DefaultUserAgent,
		maxBodySize:  DefaultMaxBodySize,
		mainSelector: DefaultMainSelector,
		navSelector:  DefaultNavSelector,
		obeyRobots:   true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.obeyRobots {
		f.robots = newRobotsCache(client, f.userAgent)
	}
	return f
}

// Fetch retrieves pageURL, parses it and locates its regions.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", pageURL, err)
	}

	if f.robots != nil && !f.robots.allowed(ctx, u) {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrDisallowedByRobots)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %w", pageURL, &StatusError{Code: resp.StatusCode})
	}
	if !isHTML(resp.Header.Get("Content-Type")) {
		return nil, fmt.Errorf("%s: %w", pageURL, ErrNotHTML)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", pageURL, err)
	}

	page, err := f.parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	page.URL = pageURL
	page.FinalURL = resp.Request.URL.String()
	page.StatusCode = resp.StatusCode
	return page, nil
}

// parse builds a Page from an HTML body.
func (f *HTTPFetcher) parse(body []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return Locate(root, f.mainSelector, f.navSelector), nil
}

// Locate finds the regions and hrefs of a parsed document.
// The URL fields of the returned Page are left empty.
func Locate(root *html.Node, mainSelector, navSelector string) *Page {
	doc := goquery.NewDocumentFromNode(root)

	page := &Page{
		Document: root,
		Links:    hrefs(doc.Selection),
		NavLinks: make([]string, 0),
	}

	if main := doc.Find(mainSelector).First(); main.Length() > 0 {
		page.Main = main.Nodes[0]
	}
	if nav := doc.Find(navSelector).First(); nav.Length() > 0 {
		page.Nav = nav.Nodes[0]
		page.NavLinks = hrefs(nav)
	}
	return page
}

// hrefs returns the href attribute of every anchor under sel.
func hrefs(sel *goquery.Selection) []string {
	links := make([]string, 0)
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			links = append(links, href)
		}
	})
	return links
}

// isHTML reports whether a Content-Type denotes an HTML document.
// A missing Content-Type is treated as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
