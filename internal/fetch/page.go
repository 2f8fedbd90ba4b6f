package fetch

import "golang.org/x/net/html"

// Page is a fetched and parsed HTML page.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after redirects. Relative links resolve against it.
	FinalURL string

	// StatusCode is the HTTP status of the final response.
	StatusCode int

	// Document is the parsed document root.
	Document *html.Node

	// Main is the main content region, or nil when the page has none.
	Main *html.Node

	// Nav is the navigation region, or nil when the page has none.
	Nav *html.Node

	// Links holds the raw href of every anchor in the page, in order.
	Links []string

	// NavLinks holds the raw href of every anchor in the navigation region.
	NavLinks []string
}

// BaseURL returns the URL relative links on this page resolve against.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}
