package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/mdscrape/internal/config"
	"github.com/nao1215/mdscrape/internal/database"
	"github.com/nao1215/mdscrape/internal/log"
	"github.com/nao1215/mdscrape/internal/model"
	"github.com/nao1215/mdscrape/internal/pipeline"
	"github.com/nao1215/mdscrape/internal/render"
	"github.com/nao1215/mdscrape/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl documentation sites and convert their pages",
		Long: `Crawl fetches a documentation site starting from each seed URL and writes
every page as a Markdown file. Each seed is an independent session with its
own visited set and its own output names.

Every page is reduced to its title, section headings, paragraphs (with
links kept inline) and the first code sample of each section.

Examples:
  # Crawl the seed page and every page in its sidebar
  mdscrape crawl https://docs.example.com/guide/

  # Follow every link up to three hops away
  mdscrape crawl --policy unscoped --depth 3 https://docs.example.com/

  # Write Markdown and HTML into one directory
  mdscrape crawl --format markdown,html -o site https://docs.example.com/

  # Crawl two sites at once and print a JSON summary
  mdscrape crawl --json https://a.example.com/ https://b.example.com/

Configuration file (.mdscrape) example:
  defaults:
    navSelector: "nav.sidebar"
  sites:
    docs.example.com:
      mainSelector: "article"
      naming: counter
      ignorePatterns:
        - "/blog/*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().String("policy", config.DefaultPolicy,
		"Link policy: scoped (seed navigation only) or unscoped (every link)")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum hops from the seed for the unscoped policy (-1 = unlimited)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages scheduled per seed (0 = unlimited)")
	cmd.Flags().Int("retries", config.DefaultMaxRetries,
		"Number of retries for a page that failed to download")
	cmd.Flags().IntP("concurrency", "b", config.DefaultConcurrency,
		"Number of seeds crawled at once")
	cmd.Flags().StringSlice("allow-host", nil,
		"Hostnames links may point to (default: the seed's host)")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Minimum delay between requests to a site")
	cmd.Flags().String("user-agent", "",
		"User-Agent header sent with every request")
	cmd.Flags().Int64("max-body-size", 0,
		"Maximum response body size in bytes")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:1080)")
	cmd.Flags().Bool("ignore-robots", false,
		"Do not check robots.txt")

	// Extraction flags
	cmd.Flags().String("main-selector", "",
		"CSS selector of the main content region")
	cmd.Flags().String("nav-selector", "",
		"CSS selector of the navigation sidebar")
	cmd.Flags().String("extraction", config.DefaultExtraction,
		"Extraction mode: structural or legacy")

	// Output flags
	cmd.Flags().StringSliceP("format", "f", []string{string(render.FormatMarkdown)},
		"Output formats: markdown, html, pdf")
	cmd.Flags().StringP("output", "o", "",
		"Output directory for every format (default: output_<format>)")
	cmd.Flags().String("naming", config.DefaultNaming,
		"Output naming policy: url-tail or counter")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium executable used for PDF output")
	cmd.Flags().Bool("no-index", false,
		"Do not write index.md")
	cmd.Flags().BoolP("json", "j", false,
		"Print the crawl summary as JSON")
	cmd.Flags().String("log-format", config.DefaultLogFormat,
		"Log line format on stderr: text or json")

	// Configuration and history
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mdscrape in the current directory, XDG config.yaml, or .mdscrape in home)")
	cmd.Flags().String("db-dir", "",
		"Directory of the crawl history database (default: XDG data directory)")
	cmd.Flags().Bool("no-history", false,
		"Do not record the crawl in the history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Validate has accepted the format.
	format, _ := log.ParseFormat(cfg.LogFormat)
	logger := log.NewLogger(cmd.ErrOrStderr(), format, cfg.Verbose, cfg.Redactor())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Flags left unset keep the defaults from config.NewConfig.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Policy, err = flags.GetString("policy"); err != nil {
		return nil, err
	}
	if cfg.MaxDepth, err = flags.GetInt("depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.AllowedHosts, err = flags.GetStringSlice("allow-host"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.IgnoreRobots, err = flags.GetBool("ignore-robots"); err != nil {
		return nil, err
	}
	if cfg.Extraction, err = flags.GetString("extraction"); err != nil {
		return nil, err
	}
	if cfg.Formats, err = flags.GetStringSlice("format"); err != nil {
		return nil, err
	}
	if cfg.OutputDir, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Naming, err = flags.GetString("naming"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.NoIndex, err = flags.GetBool("no-index"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.LogFormat, err = flags.GetString("log-format"); err != nil {
		return nil, err
	}
	if cfg.NoHistory, err = flags.GetBool("no-history"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// Empty values keep the defaults.
	if err := overrideString(cmd, "user-agent", &cfg.UserAgent); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "main-selector", &cfg.MainSelector); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "nav-selector", &cfg.NavSelector); err != nil {
		return nil, err
	}
	if err := overrideString(cmd, "db-dir", &cfg.DBDir); err != nil {
		return nil, err
	}
	maxBody, err := flags.GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}
	if maxBody != 0 {
		cfg.MaxBodySize = maxBody
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// If the user named a config file, it must exist. Otherwise a missing
	// file just means no site-specific settings.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.Seeds = args
	return cfg, nil
}

// overrideString sets *dst to the flag's value when it is not empty.
func overrideString(cmd *cobra.Command, name string, dst *string) error {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	if v != "" {
		*dst = v
	}
	return nil
}

// runCrawl crawls every seed and writes the index and the summary.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"formats", cfg.Formats,
		"concurrency", cfg.Concurrency,
		"history", !cfg.NoHistory,
	)

	var db *database.CrawlDB
	if !cfg.NoHistory {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	var conv render.PDFConverter
	if wantsFormat(cfg, render.FormatPDF) {
		chrome, err := newChromeConverter(cfg)
		if err != nil {
			return fmt.Errorf("failed to start browser for pdf output: %w", err)
		}
		defer func() {
			if err := chrome.Close(); err != nil {
				logger.Warn("failed to stop browser", "error", err)
			}
		}()
		conv = chrome
	}

	runner := newRunner(cfg, conv, db, logger)
	bp := pipeline.NewBatchProcessor(runner,
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	results, batchErr := bp.ProcessBatch(ctx, cfg.Seeds)
	reports := completed(results)

	if !cfg.NoIndex && len(reports) > 0 {
		path, err := report.WriteIndex(indexDir(cfg), reports...)
		if err != nil {
			logger.Error("failed to write index", "error", err)
		} else {
			logger.Info("index written", "path", path)
		}
	}

	if err := writeSummary(out, cfg, reports); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if batchErr != nil {
		return batchErr
	}
	return sessionErrors(reports)
}

// completed drops the reports of seeds that never started.
func completed(results []*model.SessionReport) []*model.SessionReport {
	reports := make([]*model.SessionReport, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, r)
		}
	}
	return reports
}

// wantsFormat reports whether f is one of the configured formats.
func wantsFormat(cfg *config.Config, f render.Format) bool {
	for _, name := range cfg.Formats {
		if got, err := render.ParseFormat(name); err == nil && got == f {
			return true
		}
	}
	return false
}

// outputDir returns the directory files of format f are written to.
func outputDir(cfg *config.Config, f render.Format) string {
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return f.DefaultDir()
}

// indexDir returns the directory of index.md: the directory of the first
// configured format.
func indexDir(cfg *config.Config) string {
	for _, name := range cfg.Formats {
		if f, err := render.ParseFormat(name); err == nil {
			return outputDir(cfg, f)
		}
	}
	return outputDir(cfg, render.FormatMarkdown)
}

// writeSummary prints the session summaries as text or JSON.
func writeSummary(out io.Writer, cfg *config.Config, reports []*model.SessionReport) error {
	var w report.Writer
	if cfg.JSONReport {
		w = report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
	_, err := w.Write(reports...)
	return err
}

// sessionErrors returns an error when any session could not crawl its seed.
func sessionErrors(reports []*model.SessionReport) error {
	var errs []error
	for _, r := range reports {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Seed, r.Error))
		}
	}
	return errors.Join(errs...)
}
