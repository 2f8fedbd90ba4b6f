// Package crawler decides which documentation pages to visit and drives a
// crawl session.
//
// # Architecture
//
// A session is one Spider.Crawl call. It owns a Frontier, which holds the
// set of URLs already scheduled (the visited set), the queue of pending
// entries, and the filters that decide whether a discovered link becomes a
// candidate at all. The Spider pops one entry at a time, asks a
// fetch.Fetcher for the page, schedules the page's links and hands the page
// to a PageHandler.
//
// # Policies
//
//   - PolicyScoped: only links in the navigation region of the seed page
//     are followed, one hop. Those pages are processed but their own links
//     are not followed.
//   - PolicyUnscoped: every link on every page is a candidate, breadth
//     first, until no unseen URL remains. The host allow-list and the
//     optional max depth and max pages bound it.
//
// # Deduplication
//
// A URL enters the visited set when it is scheduled, under the Frontier's
// mutex, so it is fetched at most once per session even when several
// goroutines schedule links concurrently. URLs are compared by string
// equality after resolution: fragments, queries and trailing slashes are
// significant.
//
// # Usage
//
//	spider := crawler.NewSpider(fetcher, handler, crawler.WithPolicy(crawler.PolicyScoped))
//	result, err := spider.Crawl(ctx, "https://docs.example.com/")
package crawler
