package fetch

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches robots.txt per scheme and host.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu    sync.Mutex
	hosts map[string]*robotstxt.Group
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		hosts:     make(map[string]*robotstxt.Group),
	}
}

// allowed reports whether the user agent may fetch u.
// A robots.txt that is missing, unreadable or has no group for the agent
// allows everything.
func (c *robotsCache) allowed(ctx context.Context, u *url.URL) bool {
	group := c.group(ctx, u)
	if group == nil {
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

// group returns the robots.txt rule group for u's host, loading it once.
func (c *robotsCache) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	key := u.Scheme + "://" + u.Host

	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.hosts[key]; ok {
		return g
	}

	g := c.load(ctx, key+"/robots.txt")
	c.hosts[key] = g
	return g
}

func (c *robotsCache) load(ctx context.Context, robotsURL string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(c.userAgent)
}
