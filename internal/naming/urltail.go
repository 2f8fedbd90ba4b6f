package naming

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// indexSegment is the tail used for URLs with an empty path.
const indexSegment = "index"

// URLTailNamer names pages as base + "_" + last URL path segment.
//
// Design decision: When a name was already issued in the session, the tail
// is widened with parent path segments before falling back to a numeric
// suffix because:
//  1. Doc sites reuse leaf names ("overview") under different sections
//  2. The widened name still tells the reader where the page came from
//  3. Distinct URLs must never overwrite each other's output
type URLTailNamer struct {
	mu     sync.Mutex
	issued map[string]struct{}
}

// NewURLTailNamer creates a URLTailNamer with an empty session history.
func NewURLTailNamer() *URLTailNamer {
	return &URLTailNamer{issued: make(map[string]struct{})}
}

// Name returns a name unique within this namer's session.
func (n *URLTailNamer) Name(title, sourceURL string) string {
	base := Base(title)
	segments := pathSegments(sourceURL)

	n.mu.Lock()
	defer n.mu.Unlock()

	// Widen the tail one parent segment at a time: overview, b_overview, ...
	for width := 1; width <= len(segments); width++ {
		tail := strings.Join(segments[len(segments)-width:], "_")
		name := base + "_" + tail
		if _, ok := n.issued[name]; !ok {
			n.issued[name] = struct{}{}
			return name
		}
	}

	stem := base + "_" + strings.Join(segments, "_")
	for i := 2; ; i++ {
		name := stem + "_" + strconv.Itoa(i)
		if _, ok := n.issued[name]; !ok {
			n.issued[name] = struct{}{}
			return name
		}
	}
}

// Tail returns the last non-empty path segment of rawURL with non-word
// characters replaced by "_", or "index" when the path is empty.
func Tail(rawURL string) string {
	segments := pathSegments(rawURL)
	return segments[len(segments)-1]
}

// pathSegments returns the sanitized non-empty path segments of rawURL.
// The result always has at least one element.
func pathSegments(rawURL string) []string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}

	segments := make([]string, 0)
	for _, s := range strings.Split(path, "/") {
		if s == "" {
			continue
		}
		segments = append(segments, nonWordChars.ReplaceAllString(s, "_"))
	}
	if len(segments) == 0 {
		return []string{indexSegment}
	}
	return segments
}
