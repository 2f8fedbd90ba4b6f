package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/nao1215/mdscrape/internal/config"
	"github.com/nao1215/mdscrape/internal/crawler"
	"github.com/nao1215/mdscrape/internal/database"
	"github.com/nao1215/mdscrape/internal/extract"
	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/naming"
	"github.com/nao1215/mdscrape/internal/pipeline"
	"github.com/nao1215/mdscrape/internal/render"
)

// newRunner creates the session runner for cfg.
// conv may be nil when PDF output is not configured, and db may be nil
// when history is disabled.
//
// Design decision: Site configuration is resolved per seed inside the
// factories because:
//  1. Concurrent sessions may crawl different hosts
//  2. Each session needs its own fetch client and selectors
//  3. The batch processor stays unaware of configuration
func newRunner(cfg *config.Config, conv render.PDFConverter, db *database.CrawlDB, logger *slog.Logger) *pipeline.Runner {
	opts := []pipeline.RunnerOption{
		pipeline.WithRunnerLogger(logger),
		pipeline.WithRunnerPolicyFunc(func(seed string) crawler.Policy {
			policy, err := crawler.ParsePolicy(cfg.Resolve(seedHost(seed)).Policy)
			if err != nil {
				return crawler.PolicyScoped
			}
			return policy
		}),
	}
	if db != nil {
		opts = append(opts, pipeline.WithRunnerRecorder(db))
	}
	return pipeline.NewRunner(
		newSpiderFactory(cfg, logger),
		newPipelineFactory(cfg, conv, logger),
		opts...,
	)
}

// newSpiderFactory builds a Spider with the seed host's effective settings.
func newSpiderFactory(cfg *config.Config, logger *slog.Logger) pipeline.SpiderFactory {
	return func(seed string, handler crawler.PageHandler) (*crawler.Spider, error) {
		site := cfg.Resolve(seedHost(seed))

		policy, err := crawler.ParsePolicy(site.Policy)
		if err != nil {
			return nil, err
		}

		client, err := fetch.NewHTTPClient(fetch.ClientConfig{
			Timeout:      cfg.Timeout,
			ProxyAddress: cfg.ProxyAddress,
			Cookie:       site.Cookie,
			Headers:      site.Headers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create http client: %w", err)
		}

		fetcher := fetch.NewHTTPFetcher(client,
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
			fetch.WithDelay(cfg.CrawlDelay),
			fetch.WithRobots(!cfg.IgnoreRobots),
			fetch.WithSelectors(site.MainSelector, site.NavSelector),
		)

		frontierOpts := []crawler.FrontierOption{
			crawler.WithIgnorePatterns(site.IgnorePatterns),
			crawler.WithFollowPatterns(site.FollowPatterns),
			crawler.WithMaxPages(cfg.MaxPages),
		}
		if len(site.AllowedHosts) > 0 {
			frontierOpts = append(frontierOpts, crawler.WithAllowedHosts(site.AllowedHosts...))
		}

		return crawler.NewSpider(fetcher, handler,
			crawler.WithPolicy(policy),
			crawler.WithMaxDepth(site.Depth),
			crawler.WithMaxRetries(cfg.MaxRetries),
			crawler.WithFrontierOptions(frontierOpts...),
			crawler.WithLogger(logger),
		), nil
	}
}

// namerSet hands out one Namer per naming policy for a whole run.
//
// Design decision: Sessions of one run share their namers because:
//  1. Every session writes into the same output directories
//  2. Two seeds on one site would otherwise issue the same name twice
//  3. Both namers are safe for concurrent use
type namerSet struct {
	mu     sync.Mutex
	namers map[naming.Policy]naming.Namer
}

func newNamerSet() *namerSet {
	return &namerSet{namers: make(map[naming.Policy]naming.Namer)}
}

// get returns the run's namer for policy, creating it on first use.
func (s *namerSet) get(policy naming.Policy) (naming.Namer, error) {
	if policy == "" {
		policy = naming.PolicyURLTail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.namers[policy]; ok {
		return n, nil
	}
	n, err := naming.New(policy)
	if err != nil {
		return nil, err
	}
	s.namers[policy] = n
	return n, nil
}

// newPipelineFactory builds the page pipeline of one session. All sessions
// created by the returned factory share their namers.
func newPipelineFactory(cfg *config.Config, conv render.PDFConverter, logger *slog.Logger) pipeline.PipelineFactory {
	namers := newNamerSet()
	return func(seed string) (*pipeline.Pipeline, error) {
		site := cfg.Resolve(seedHost(seed))

		mode, err := extract.ParseMode(site.Extraction)
		if err != nil {
			return nil, err
		}
		namer, err := namers.get(naming.Policy(site.Naming))
		if err != nil {
			return nil, err
		}
		writers, err := newWriters(cfg, conv)
		if err != nil {
			return nil, err
		}

		p := pipeline.NewPagePipeline(
			extract.NewExtractor(extract.WithMode(mode)),
			namer,
			writers,
			pipeline.WithLogger(logger),
		)
		logger.Debug("page pipeline ready", "seed", seed, "extraction", mode, "naming", site.Naming, "steps", p.StepNames())
		return p, nil
	}
}

// newWriters creates one writer per configured format, in order.
func newWriters(cfg *config.Config, conv render.PDFConverter) ([]render.Writer, error) {
	writers := make([]render.Writer, 0, len(cfg.Formats))
	for _, name := range cfg.Formats {
		f, err := render.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		dir := outputDir(cfg, f)
		switch f {
		case render.FormatHTML:
			writers = append(writers, render.NewHTMLWriter(dir))
		case render.FormatPDF:
			if conv == nil {
				return nil, fmt.Errorf("pdf output requested without a converter")
			}
			writers = append(writers, render.NewPDFWriter(dir, conv))
		default:
			writers = append(writers, render.NewMarkdownWriter(dir))
		}
	}
	return writers, nil
}

// newChromeConverter starts the headless browser used for PDF output.
func newChromeConverter(cfg *config.Config) (*render.ChromeConverter, error) {
	opts := []render.ChromeOption{render.WithPrintTimeout(cfg.Timeout)}
	if cfg.ChromePath != "" {
		opts = append(opts, render.WithChromePath(cfg.ChromePath))
	}
	// Chrome refuses to start its sandbox as root.
	if os.Geteuid() == 0 {
		opts = append(opts, render.WithNoSandbox())
	}
	return render.NewChromeConverter(opts...)
}

// seedHost returns the hostname of seed, or "" when it does not parse.
// An unparsable seed is reported by the Spider.
func seedHost(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
