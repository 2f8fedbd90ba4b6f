package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/mdscrape/internal/config"
	"github.com/nao1215/mdscrape/internal/crawler"
	"github.com/nao1215/mdscrape/internal/database"
	"github.com/nao1215/mdscrape/internal/model"
	"github.com/nao1215/mdscrape/internal/render"
	"github.com/nao1215/mdscrape/internal/report"
)

// newDocServer serves a small documentation site with a sidebar.
func newDocServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"GET /{$}": `<html><head><title>Home</title></head><body>
			<nav id="sidebar"><a href="/guide/start">Start</a><a href="/guide/install">Install</a></nav>
			<main><h1>Home</h1><p>Welcome to the <a href="/guide/start">guide</a>.</p></main></body></html>`,
		"GET /guide/start": `<html><body><main><h1>Getting Started</h1><p>First steps.</p></main></body></html>`,
		"GET /guide/install": `<html><body><main><h1>Installation</h1>
			<h2>Linux</h2><pre><code>npm install foo</code></pre></main></body></html>`,
	}

	mux := http.NewServeMux()
	for pattern, body := range pages {
		mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, body)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// quietLogger discards log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a configuration that writes into temporary directories.
func testConfig(t *testing.T, seeds ...string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Seeds = seeds
	cfg.OutputDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.CrawlDelay = 0
	cfg.Timeout = 5 * time.Second
	cfg.IgnoreRobots = true
	cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	return cfg
}

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	if cmd.Name() != "crawl" {
		t.Errorf("expected name 'crawl', got %q", cmd.Name())
	}

	flagTests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"policy", "", config.DefaultPolicy},
		{"depth", "d", "-1"},
		{"max-pages", "p", "500"},
		{"retries", "", "2"},
		{"concurrency", "b", "4"},
		{"timeout", "t", "30s"},
		{"delay", "", "500ms"},
		{"format", "f", "[markdown]"},
		{"output", "o", ""},
		{"naming", "", config.DefaultNaming},
		{"extraction", "", config.DefaultExtraction},
		{"json", "j", "false"},
		{"log-format", "", "text"},
		{"config", "c", ""},
		{"no-history", "", "false"},
		{"no-index", "", "false"},
		{"ignore-robots", "", "false"},
	}

	for _, tt := range flagTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestGetVerboseFlag tests the verbose flag retrieval.
func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("returns false when flag not set", func(t *testing.T) {
		t.Parallel()
		if getVerboseFlag(NewCrawlCmd()) {
			t.Error("expected false when flag not set")
		}
	})

	t.Run("returns value from parent verbose flag", func(t *testing.T) {
		t.Parallel()
		root := NewRootCmd()
		_ = root.PersistentFlags().Set("verbose", "true")

		crawlCmd, _, err := root.Find([]string{"crawl"})
		if err != nil {
			t.Fatalf("failed to find crawl command: %v", err)
		}
		if !getVerboseFlag(crawlCmd) {
			t.Error("expected true from parent verbose flag")
		}
	})
}

// TestBuildConfig tests configuration building from flags.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("builds config with default values", func(t *testing.T) {
		t.Parallel()
		cfg, err := buildConfig(NewCrawlCmd(), []string{"https://docs.example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "https://docs.example.com/" {
			t.Errorf("expected seeds [https://docs.example.com/], got %v", cfg.Seeds)
		}
		defaults := config.NewConfig()
		if cfg.Policy != defaults.Policy || cfg.Naming != defaults.Naming {
			t.Errorf("expected default policy and naming, got %q and %q", cfg.Policy, cfg.Naming)
		}
		if cfg.UserAgent != defaults.UserAgent {
			t.Errorf("expected default user agent, got %q", cfg.UserAgent)
		}
		if cfg.MainSelector != defaults.MainSelector || cfg.NavSelector != defaults.NavSelector {
			t.Errorf("expected default selectors, got %q and %q", cfg.MainSelector, cfg.NavSelector)
		}
		if cfg.MaxBodySize != defaults.MaxBodySize {
			t.Errorf("expected default body size, got %d", cfg.MaxBodySize)
		}
		if cfg.DBDir != defaults.DBDir {
			t.Errorf("expected default db dir, got %q", cfg.DBDir)
		}
		if cfg.SiteConfigs == nil {
			t.Error("expected non-nil site configs")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("builds config from flags", func(t *testing.T) {
		t.Parallel()
		cmd := NewCrawlCmd()
		flags := map[string]string{
			"policy":        "unscoped",
			"depth":         "3",
			"format":        "markdown,html",
			"output":        "site",
			"naming":        "counter",
			"extraction":    "legacy",
			"user-agent":    "test-agent",
			"main-selector": "article",
			"allow-host":    "a.example.com,b.example.com",
			"max-body-size": "1024",
			"no-history":    "true",
			"json":          "true",
			"log-format":    "json",
		}
		for name, value := range flags {
			if err := cmd.Flags().Set(name, value); err != nil {
				t.Fatalf("failed to set %s: %v", name, err)
			}
		}

		cfg, err := buildConfig(cmd, []string{"https://docs.example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Policy != "unscoped" || cfg.MaxDepth != 3 {
			t.Errorf("expected unscoped depth 3, got %q depth %d", cfg.Policy, cfg.MaxDepth)
		}
		if strings.Join(cfg.Formats, ",") != "markdown,html" {
			t.Errorf("expected formats markdown,html, got %v", cfg.Formats)
		}
		if cfg.OutputDir != "site" {
			t.Errorf("expected output dir 'site', got %q", cfg.OutputDir)
		}
		if cfg.Naming != "counter" || cfg.Extraction != "legacy" {
			t.Errorf("expected counter/legacy, got %q/%q", cfg.Naming, cfg.Extraction)
		}
		if cfg.UserAgent != "test-agent" || cfg.MainSelector != "article" {
			t.Errorf("expected overrides, got %q and %q", cfg.UserAgent, cfg.MainSelector)
		}
		if len(cfg.AllowedHosts) != 2 {
			t.Errorf("expected 2 allowed hosts, got %v", cfg.AllowedHosts)
		}
		if cfg.MaxBodySize != 1024 {
			t.Errorf("expected body size 1024, got %d", cfg.MaxBodySize)
		}
		if !cfg.NoHistory || !cfg.JSONReport {
			t.Error("expected NoHistory and JSONReport to be true")
		}
		if cfg.LogFormat != "json" {
			t.Errorf("expected json log format, got %q", cfg.LogFormat)
		}
	})

	t.Run("loads config file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "site.yaml")
		content := `
defaults:
  navSelector: "nav.menu"
sites:
  docs.example.com:
    naming: counter
    mainSelector: "article"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		cfg, err := buildConfig(cmd, []string{"https://docs.example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		site := cfg.Resolve("docs.example.com")
		if site.Naming != "counter" || site.MainSelector != "article" || site.NavSelector != "nav.menu" {
			t.Errorf("unexpected resolved site config: %+v", site)
		}
		other := cfg.Resolve("other.example.com")
		if other.Naming != config.DefaultNaming {
			t.Errorf("expected default naming for other host, got %q", other.Naming)
		}
	})

	t.Run("fails for missing explicit config file", func(t *testing.T) {
		t.Parallel()
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := buildConfig(cmd, []string{"https://docs.example.com/"})
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("fails for invalid config file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("defaults:\n  policy: sideways\n"), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("config", path)
		_, err := buildConfig(cmd, []string{"https://docs.example.com/"})
		if !errors.Is(err, config.ErrInvalidPolicy) {
			t.Errorf("expected ErrInvalidPolicy, got %v", err)
		}
	})
}

// TestRunCrawlCmdValidation tests that invalid input is rejected before crawling.
func TestRunCrawlCmdValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no seeds", []string{"crawl", "--no-history"}, config.ErrNoSeed},
		{"bad policy", []string{"crawl", "--no-history", "--policy", "sideways", "https://d/"}, config.ErrInvalidPolicy},
		{"bad format", []string{"crawl", "--no-history", "--format", "docx", "https://d/"}, config.ErrInvalidFormat},
		{"bad naming", []string{"crawl", "--no-history", "--naming", "random", "https://d/"}, config.ErrInvalidNaming},
		{"bad log format", []string{"crawl", "--no-history", "--log-format", "xml", "https://d/"}, config.ErrInvalidLogFormat},
		{"bad concurrency", []string{"crawl", "--no-history", "-b", "0", "https://d/"}, config.ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			root := NewRootCmd()
			root.SetOut(&buf)
			root.SetErr(&buf)
			root.SetArgs(tt.args)

			err := root.Execute()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestRunCrawl tests a complete crawl against a local documentation site.
func TestRunCrawl(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t)
	cfg := testConfig(t, srv.URL+"/")
	cfg.Formats = []string{"markdown", "html"}

	var out bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"home_index", "getting_started_start", "installation_install"} {
		for _, ext := range []string{".md", ".html"} {
			if _, err := os.Stat(filepath.Join(cfg.OutputDir, name+ext)); err != nil {
				t.Errorf("missing output %s%s: %v", name, ext, err)
			}
		}
	}

	install, err := os.ReadFile(filepath.Join(cfg.OutputDir, "installation_install.md"))
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	for _, want := range []string{"# Installation", "## Linux", "npm install foo"} {
		if !strings.Contains(string(install), want) {
			t.Errorf("expected %q in output, got:\n%s", want, install)
		}
	}

	index, err := os.ReadFile(filepath.Join(cfg.OutputDir, report.IndexFileName))
	if err != nil {
		t.Fatalf("expected index.md: %v", err)
	}
	if !strings.Contains(string(index), "(home_index.md)") {
		t.Errorf("expected relative link to home_index.md in index, got:\n%s", index)
	}

	summary := out.String()
	if !strings.Contains(summary, "3 saved, 0 failed") {
		t.Errorf("expected summary with 3 saved pages, got:\n%s", summary)
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	sessions, err := db.ListSessions(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Saved != 3 || sessions[0].Failed != 0 {
		t.Errorf("expected 3 saved and 0 failed, got %d and %d", sessions[0].Saved, sessions[0].Failed)
	}
	if sessions[0].FinishedAt.IsZero() {
		t.Error("expected session to be finished")
	}
}

// TestRunCrawlSiteConfig tests that site configuration applies per seed host.
func TestRunCrawlSiteConfig(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t)
	cfg := testConfig(t, srv.URL+"/")
	cfg.NoHistory = true
	cfg.NoIndex = true
	cfg.SiteConfigs.Sites["127.0.0.1"] = config.SiteConfig{Naming: "counter"}

	var out bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The seed is always the first page named.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "home_1.md")); err != nil {
		t.Errorf("expected counter-named seed page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, report.IndexFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no index with NoIndex, got %v", err)
	}
}

// TestRunCrawlJSON tests the JSON summary.
func TestRunCrawlJSON(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t)
	cfg := testConfig(t, srv.URL+"/", srv.URL+"/guide/start")
	cfg.NoHistory = true
	cfg.JSONReport = true
	cfg.Policy = string(crawler.PolicyUnscoped)
	cfg.MaxDepth = 0

	var out bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded report.JSONReport
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON summary: %v\n%s", err, out.String())
	}
	if len(decoded.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(decoded.Sessions))
	}
	for i, seed := range cfg.Seeds {
		s := decoded.Sessions[i]
		if s.Seed != seed {
			t.Errorf("session %d: expected seed %q, got %q", i, seed, s.Seed)
		}
		if s.Policy != "unscoped" {
			t.Errorf("session %d: expected unscoped policy, got %q", i, s.Policy)
		}
		if len(s.Pages) != 1 || s.Pages[0].Status != model.PageSaved {
			t.Errorf("session %d: expected only the saved seed page, got %+v", i, s.Pages)
		}
	}
}

// TestRunCrawlInvalidSeed tests that a session error makes the command fail.
func TestRunCrawlInvalidSeed(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "ftp://docs.example.com/")
	cfg.NoHistory = true

	var out bytes.Buffer
	err := runCrawl(context.Background(), cfg, &out, quietLogger())
	if !errors.Is(err, crawler.ErrInvalidSeed) {
		t.Fatalf("expected ErrInvalidSeed, got %v", err)
	}
	if !strings.Contains(out.String(), "Error - ") {
		t.Errorf("expected error status in summary, got:\n%s", out.String())
	}
}

// TestRunCrawlCancelled tests that a cancelled context stops before crawling.
func TestRunCrawlCancelled(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t)
	cfg := testConfig(t, srv.URL+"/")
	cfg.NoHistory = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := runCrawl(ctx, cfg, &out, quietLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "home_index.md")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected no output after cancellation, got %v", err)
	}
}

// TestOutputDirs tests output and index directory selection.
func TestOutputDirs(t *testing.T) {
	t.Parallel()

	t.Run("per-format defaults", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Formats = []string{"html", "markdown"}
		if got := outputDir(cfg, render.FormatPDF); got != render.DefaultPDFDir {
			t.Errorf("expected %q, got %q", render.DefaultPDFDir, got)
		}
		if got := indexDir(cfg); got != render.DefaultHTMLDir {
			t.Errorf("expected index in %q, got %q", render.DefaultHTMLDir, got)
		}
	})

	t.Run("explicit output directory", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.OutputDir = "site"
		if got := outputDir(cfg, render.FormatHTML); got != "site" {
			t.Errorf("expected 'site', got %q", got)
		}
		if got := indexDir(cfg); got != "site" {
			t.Errorf("expected index in 'site', got %q", got)
		}
	})
}

// TestWantsFormat tests format lookup, including aliases.
func TestWantsFormat(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Formats = []string{"md", "pdf"}

	if !wantsFormat(cfg, render.FormatMarkdown) {
		t.Error("expected markdown through the md alias")
	}
	if !wantsFormat(cfg, render.FormatPDF) {
		t.Error("expected pdf")
	}
	if wantsFormat(cfg, render.FormatHTML) {
		t.Error("did not expect html")
	}
}

// TestSessionErrors tests the command error built from session reports.
func TestSessionErrors(t *testing.T) {
	t.Parallel()

	ok := model.NewSessionReport("a", "https://a/", "scoped")
	bad := model.NewSessionReport("b", "https://b/", "scoped")
	bad.SetError(crawler.ErrInvalidSeed)

	if err := sessionErrors([]*model.SessionReport{ok}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	err := sessionErrors([]*model.SessionReport{ok, bad})
	if !errors.Is(err, crawler.ErrInvalidSeed) {
		t.Errorf("expected ErrInvalidSeed, got %v", err)
	}
	if !strings.Contains(err.Error(), "https://b/") {
		t.Errorf("expected seed in error, got %v", err)
	}

	if got := completed([]*model.SessionReport{nil, ok, nil}); len(got) != 1 {
		t.Errorf("expected 1 completed report, got %d", len(got))
	}
}
