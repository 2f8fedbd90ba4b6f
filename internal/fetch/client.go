package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains.
const maxRedirects = 10

// ClientConfig configures the HTTP client built by NewHTTPClient.
type ClientConfig struct {
	// Timeout is the whole-request timeout. Zero means no timeout.
	Timeout time.Duration

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Cookie is a raw cookie string sent with every request.
	Cookie string

	// Headers are extra headers sent with every request.
	Headers map[string]string
}

// NewHTTPClient creates an HTTP client for crawling.
//
// Design decisions:
//   - A cookie jar keeps session cookies set by the site during the crawl
//   - Redirects are limited to avoid loops
//   - Cookie and headers are injected by a RoundTripper so redirects carry them too
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if cfg.ProxyAddress != "" {
		if !isValidProxyAddress(cfg.ProxyAddress) {
			return nil, ErrInvalidProxyAddress
		}
		dialer, err := proxy.SOCKS5("tcp", cfg.ProxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	var rt http.RoundTripper = transport
	if cfg.Cookie != "" || len(cfg.Headers) > 0 {
		rt = &headerInjectingTransport{
			base:    transport,
			cookie:  cfg.Cookie,
			headers: cfg.Headers,
		}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// isValidProxyAddress checks that address is "host:port" with a port in range.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// headerInjectingTransport adds a cookie and custom headers to every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
