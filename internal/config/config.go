package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/mdscrape/internal/crawler"
	"github.com/nao1215/mdscrape/internal/extract"
	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/log"
	"github.com/nao1215/mdscrape/internal/naming"
	"github.com/nao1215/mdscrape/internal/render"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mdscrape"

	// DefaultTimeout bounds each HTTP request. Documentation sites answer
	// quickly; a slow page is more likely broken than busy.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxDepth is the hop limit of the unscoped policy. The default
	// is unlimited (-1): an unscoped crawl ends when no unseen URL remains
	// or MaxPages is reached.
	DefaultMaxDepth = crawler.DefaultMaxDepth

	// DefaultMaxPages caps the pages scheduled per session.
	// This prevents runaway crawling on large or infinitely-generating sites.
	DefaultMaxPages = 500

	// DefaultMaxRetries is the number of times a failed fetch is re-enqueued.
	DefaultMaxRetries = crawler.DefaultMaxRetries

	// DefaultConcurrency is the number of seeds crawled at once.
	// Pages within one session are always fetched one at a time.
	DefaultConcurrency = 4

	// DefaultCrawlDelay is the delay between requests during crawling.
	// This is a politeness setting to avoid overwhelming documentation hosts.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultPolicy is the crawl policy used when none is configured.
	DefaultPolicy = string(crawler.PolicyScoped)

	// DefaultNaming is the output naming policy used when none is configured.
	DefaultNaming = string(naming.PolicyURLTail)

	// DefaultExtraction is the extraction mode used when none is configured.
	DefaultExtraction = "structural"

	// DefaultLogFormat is the log line encoding.
	DefaultLogFormat = string(log.FormatText)
)

// Config holds all configuration options for mdscrape.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, OutputConfig) for simplicity. Per-site values live in
// SiteConfigs and are merged by Resolve.
type Config struct {
	// Seeds is the list of starting URLs, one crawl session each.
	Seeds []string

	// Policy is the crawl policy name: "scoped" or "unscoped".
	Policy string

	// Naming is the output naming policy: "url-tail" or "counter".
	Naming string

	// Extraction is the extraction mode: "structural" or "legacy".
	Extraction string

	// Formats lists the output formats: markdown, html, pdf.
	Formats []string

	// OutputDir overrides the per-format default output directory.
	// When empty, each format writes to its own default directory.
	OutputDir string

	// MaxDepth is the maximum hop count followed by the unscoped policy.
	// -1 means unlimited.
	MaxDepth int

	// MaxPages caps the number of pages scheduled per session.
	// Zero means unlimited.
	MaxPages int

	// MaxRetries is the number of re-enqueues for a failed fetch.
	MaxRetries int

	// Concurrency is the number of sessions run at once.
	Concurrency int

	// Timeout is the timeout of each HTTP request.
	Timeout time.Duration

	// CrawlDelay is the minimum delay between requests of one session.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// IgnoreRobots disables robots.txt checks.
	IgnoreRobots bool

	// MainSelector is the CSS selector of the content region.
	MainSelector string

	// NavSelector is the CSS selector of the navigation region.
	NavSelector string

	// AllowedHosts restricts crawling to these hostnames.
	// When empty, each session allows only its seed's host.
	AllowedHosts []string

	// ChromePath is the browser executable used for PDF output.
	// When empty, chromedp searches the usual locations.
	ChromePath string

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// LogFormat is the log line encoding: "text" or "json".
	LogFormat string

	// JSONReport prints the final summary as JSON instead of text.
	JSONReport bool

	// NoIndex disables writing index.md.
	NoIndex bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the current directory, the XDG
	// config directory and the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory of the crawl history database.
	// Defaults to the XDG data directory (~/.local/share/mdscrape on Linux).
	DBDir string

	// NoHistory disables the crawl history database.
	NoHistory bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, depth).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Policy:       DefaultPolicy,
		Naming:       DefaultNaming,
		Extraction:   DefaultExtraction,
		LogFormat:    DefaultLogFormat,
		Formats:      []string{string(render.FormatMarkdown)},
		MaxDepth:     DefaultMaxDepth,
		MaxPages:     DefaultMaxPages,
		MaxRetries:   DefaultMaxRetries,
		Concurrency:  DefaultConcurrency,
		Timeout:      DefaultTimeout,
		CrawlDelay:   DefaultCrawlDelay,
		UserAgent:    fetch.DefaultUserAgent,
		MaxBodySize:  fetch.DefaultMaxBodySize,
		MainSelector: fetch.DefaultMainSelector,
		NavSelector:  fetch.DefaultNavSelector,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mdscrape.
// On Linux: ~/.local/share/mdscrape
// On macOS: ~/Library/Application Support/mdscrape
// On Windows: %LOCALAPPDATA%\mdscrape
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mdscrape.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxDepth < crawler.UnlimitedDepth {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if _, err := log.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogFormat, err)
	}
	if len(c.Formats) == 0 {
		return ErrNoFormat
	}
	for _, f := range c.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
		}
	}
	return validateNames(c.Policy, c.Naming, c.Extraction)
}

// Redactor returns the log redactor for this configuration. It masks the
// cookies and headers of every configured site.
func (c *Config) Redactor() *log.Redactor {
	if c.SiteConfigs == nil {
		return log.NewRedactor()
	}
	names, values := c.SiteConfigs.Credentials()
	return log.NewRedactor(log.WithSecretKeys(names...), log.WithSecrets(values...))
}

// validateNames checks the policy, naming and extraction names.
// Empty names select the defaults and are valid.
func validateNames(policy, namingPolicy, extraction string) error {
	if _, err := crawler.ParsePolicy(policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	if _, err := naming.New(naming.Policy(namingPolicy)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidNaming, err)
	}
	if _, err := extract.ParseMode(extraction); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}
	return nil
}
