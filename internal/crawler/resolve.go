package crawler

import (
	"net/url"
	"strings"
)

// resolveLink resolves href against the page it was found on.
// It returns nil for links that can never be fetched: empty hrefs, bare
// "#", non-HTTP schemes and unparsable values.
func resolveLink(base *url.URL, href string) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return nil
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if !isHTTP(resolved) {
		return nil
	}
	return resolved
}

// isHTTP reports whether u is an absolute http or https URL.
func isHTTP(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
