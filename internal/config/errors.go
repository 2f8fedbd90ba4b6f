package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoSeed is returned when no seed URL is given.
	ErrNoSeed = errors.New("no seed specified: provide at least one URL")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidMaxDepth is returned when the max depth is below -1.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be -1 (unlimited) or non-negative")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxRetries is returned when the retry count is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrNoFormat is returned when no output format is selected.
	ErrNoFormat = errors.New("no output format specified")

	// ErrInvalidFormat is returned for an unknown output format.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidPolicy is returned for an unknown crawl policy.
	ErrInvalidPolicy = errors.New("invalid crawl policy")

	// ErrInvalidNaming is returned for an unknown naming policy.
	ErrInvalidNaming = errors.New("invalid naming policy")

	// ErrInvalidExtraction is returned for an unknown extraction mode.
	ErrInvalidExtraction = errors.New("invalid extraction mode")

	// ErrInvalidLogFormat is returned for an unknown log format.
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrConfigExists is returned by WriteTemplate when the file already exists.
	ErrConfigExists = errors.New("configuration file already exists")
)
