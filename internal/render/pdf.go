package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
)

// ErrConverterClosed is returned when using a closed ChromeConverter.
var ErrConverterClosed = errors.New("pdf converter is closed")

// PDFConverter turns an HTML document into PDF bytes.
type PDFConverter interface {
	ConvertHTML(ctx context.Context, html []byte) ([]byte, error)
}

// PDFWriter writes documents as <name>.pdf.
type PDFWriter struct {
	dir  string
	md   goldmark.Markdown
	conv PDFConverter
}

// NewPDFWriter creates a PDFWriter that prints through conv into dir.
func NewPDFWriter(dir string, conv PDFConverter) *PDFWriter {
	if dir == "" {
		dir = DefaultPDFDir
	}
	return &PDFWriter{dir: dir, md: newMarkdownConverter(), conv: conv}
}

// Write renders out to HTML, prints it to PDF and stores the result.
func (w *PDFWriter) Write(ctx context.Context, out Output) (string, error) {
	htmlPage, err := renderHTML(w.md, out)
	if err != nil {
		return "", err
	}
	data, err := w.conv.ConvertHTML(ctx, htmlPage)
	if err != nil {
		return "", fmt.Errorf("failed to print %s: %w", out.Name, err)
	}
	return writeFile(w.dir, out.Name, ".pdf", data)
}

// ChromeOption configures a ChromeConverter.
type ChromeOption func(*chromeConfig)

type chromeConfig struct {
	execPath  string
	timeout   time.Duration
	noSandbox bool
}

// WithChromePath sets the Chrome or Chromium executable.
func WithChromePath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.execPath = path
	}
}

// WithPrintTimeout sets the maximum duration of one conversion.
// Zero disables the timeout.
func WithPrintTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox, required when running as root.
func WithNoSandbox() ChromeOption {
	return func(c *chromeConfig) {
		c.noSandbox = true
	}
}

// ChromeConverter prints HTML to PDF with a headless Chrome instance that is
// reused across conversions. It is safe for concurrent use. Call Close to
// stop the browser.
type ChromeConverter struct {
	cfg           chromeConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewChromeConverter starts a headless browser.
func NewChromeConverter(opts ...ChromeOption) (*ChromeConverter, error) {
	cfg := chromeConfig{timeout: 30 * time.Second}
	for _, o := range opts {
		o(&cfg)
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome fails at startup.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeConverter{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser. Close is idempotent.
func (c *ChromeConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// ConvertHTML prints an HTML document to PDF.
func (c *ChromeConverter) ConvertHTML(ctx context.Context, htmlPage []byte) ([]byte, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrConverterClosed
	}

	f, err := os.CreateTemp("", "mdscrape-*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.Write(htmlPage); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp file path: %w", err)
	}

	if c.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	defer tabCancel()

	// Stop the tab when the caller's context ends.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate("file://"+abs),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	); err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}
	return buf, nil
}
