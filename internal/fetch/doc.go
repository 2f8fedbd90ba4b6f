// Package fetch retrieves documentation pages over HTTP and locates their
// content and navigation regions.
//
// # Politeness
//
// HTTPFetcher waits on a rate limiter before every request and honours
// robots.txt for its User-Agent. Both are per fetcher, so one fetcher
// should serve one crawl session.
//
// # Regions
//
// A page's main content and navigation regions are located with CSS
// selectors (goquery). The defaults match the layout the extractor targets:
// a <main> element and a <nav id="sidebar"> element.
//
// # Proxies
//
// An optional SOCKS5 proxy can be configured for sites that are only
// reachable through one.
package fetch
