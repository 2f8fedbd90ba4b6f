package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/nao1215/mdscrape/internal/config"
	"github.com/nao1215/mdscrape/internal/crawler"
	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/model"
	"github.com/nao1215/mdscrape/internal/naming"
	"github.com/nao1215/mdscrape/internal/render"
)

type nopConverter struct{}

func (nopConverter) ConvertHTML(_ context.Context, _ []byte) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

func TestSeedHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seed string
		want string
	}{
		{"https://docs.example.com/guide/", "docs.example.com"},
		{"http://Docs.Example.com:8080/", "Docs.Example.com"},
		{"not a url\x7f", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.seed, func(t *testing.T) {
			t.Parallel()
			if got := seedHost(tt.seed); got != tt.want {
				t.Errorf("seedHost(%q) = %q, want %q", tt.seed, got, tt.want)
			}
		})
	}
}

func TestNewWriters(t *testing.T) {
	t.Parallel()

	t.Run("one writer per format in order", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Formats = []string{"html", "md", "pdf"}
		writers, err := newWriters(cfg, nopConverter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(writers) != 3 {
			t.Fatalf("expected 3 writers, got %d", len(writers))
		}
		if _, ok := writers[0].(*render.HTMLWriter); !ok {
			t.Errorf("writer 0 is %T, want *render.HTMLWriter", writers[0])
		}
		if _, ok := writers[1].(*render.MarkdownWriter); !ok {
			t.Errorf("writer 1 is %T, want *render.MarkdownWriter", writers[1])
		}
		if _, ok := writers[2].(*render.PDFWriter); !ok {
			t.Errorf("writer 2 is %T, want *render.PDFWriter", writers[2])
		}
	})

	t.Run("pdf without converter", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Formats = []string{"pdf"}
		if _, err := newWriters(cfg, nil); err == nil {
			t.Error("expected error without converter")
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.Formats = []string{"docx"}
		if _, err := newWriters(cfg, nil); err == nil {
			t.Error("expected error for unknown format")
		}
	})

	t.Run("pdf written through converter", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.OutputDir = t.TempDir()
		cfg.Formats = []string{"pdf"}
		writers, err := newWriters(cfg, nopConverter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		path, err := writers[0].Write(context.Background(), render.Output{
			Name:     "getting_started_start",
			Title:    "Getting Started",
			Markdown: "# Getting Started",
		})
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if path != filepath.Join(cfg.OutputDir, "getting_started_start.pdf") {
			t.Errorf("unexpected path %q", path)
		}
	})
}

func TestNewPipelineFactory(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.OutputDir = t.TempDir()
	cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{
		"broken.example.com": {Extraction: "magic"},
	}}
	factory := newPipelineFactory(cfg, nil, quietLogger())

	p, err := factory("https://docs.example.com/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"extract", "assemble", "name", "write"}
	got := p.StepNames()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("StepNames() = %v, want %v", got, want)
	}

	if _, err := factory("https://broken.example.com/"); err == nil {
		t.Error("expected error for invalid site extraction mode")
	}
}

func TestNewSpiderFactory(t *testing.T) {
	t.Parallel()

	handler := crawler.PageHandlerFunc(func(context.Context, model.FrontierEntry, *fetch.Page) error {
		return nil
	})

	t.Run("invalid proxy", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.ProxyAddress = "no-port"
		_, err := newSpiderFactory(cfg, quietLogger())("https://docs.example.com/", handler)
		if !errors.Is(err, fetch.ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("invalid site policy", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewConfig()
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{
			"docs.example.com": {Policy: "sideways"},
		}}
		if _, err := newSpiderFactory(cfg, quietLogger())("https://docs.example.com/", handler); err == nil {
			t.Error("expected error for invalid site policy")
		}
	})

	t.Run("site headers reach the server", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Docs-Token") != "letmein" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body><main><h1>Private</h1></main></body></html>`)
		}))
		t.Cleanup(srv.Close)

		cfg := config.NewConfig()
		cfg.CrawlDelay = 0
		cfg.IgnoreRobots = true
		cfg.SiteConfigs = &config.File{Sites: map[string]config.SiteConfig{
			"127.0.0.1": {Headers: map[string]string{"X-Docs-Token": "letmein"}},
		}}

		var pages int
		counting := crawler.PageHandlerFunc(func(context.Context, model.FrontierEntry, *fetch.Page) error {
			pages++
			return nil
		})
		spider, err := newSpiderFactory(cfg, quietLogger())(srv.URL+"/", counting)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := spider.Crawl(context.Background(), srv.URL+"/"); err != nil {
			t.Fatalf("Crawl failed: %v", err)
		}
		if pages != 1 {
			t.Errorf("expected the seed page to be handled, got %d pages", pages)
		}
	})
}

func TestNewRunnerRecordsSitePolicy(t *testing.T) {
	t.Parallel()

	srv := newDocServer(t)
	cfg := testConfig(t, srv.URL+"/")
	cfg.MaxDepth = 0
	cfg.SiteConfigs.Sites["127.0.0.1"] = config.SiteConfig{Policy: "unscoped"}

	report := newRunner(cfg, nil, nil, quietLogger()).Run(context.Background(), srv.URL+"/")
	if report.Error != nil {
		t.Fatalf("unexpected error: %v", report.Error)
	}
	if report.Policy != "unscoped" {
		t.Errorf("Policy = %q, want unscoped", report.Policy)
	}
	if saved, _ := report.Counts(); saved != 1 {
		t.Errorf("expected only the seed page with depth 0, got %d", saved)
	}
}

func TestNamerSet(t *testing.T) {
	t.Parallel()

	set := newNamerSet()
	first, err := set.get("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := set.get(naming.PolicyURLTail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Error("expected the default policy to share the url-tail namer")
	}
	if _, err := set.get("random"); err == nil {
		t.Error("expected error for unknown naming policy")
	}
}

// TestRunCrawlSeedsShareNames crawls two seeds whose pages would get the
// same name and checks that neither output is overwritten.
func TestRunCrawlSeedsShareNames(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	for _, p := range []string{"/a/overview", "/b/overview"} {
		mux.HandleFunc("GET "+p, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body><main><h1>Overview</h1><p>From %s.</p></main></body></html>`, p)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL+"/a/overview", srv.URL+"/b/overview")
	cfg.NoHistory = true
	cfg.NoIndex = true

	var out bytes.Buffer
	if err := runCrawl(context.Background(), cfg, &out, quietLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatalf("failed to read output dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct files, got %v", names)
	}
	if !slices.Contains(names, "overview_overview.md") ||
		(!slices.Contains(names, "overview_a_overview.md") && !slices.Contains(names, "overview_b_overview.md")) {
		t.Errorf("unexpected names %v", names)
	}
}
