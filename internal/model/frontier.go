package model

// FrontierEntry is a discovered URL waiting to be fetched.
// It is created when a link is scheduled for the first time and consumed
// when the URL is fetched. Retries reuse the same entry with Attempt bumped.
type FrontierEntry struct {
	// URL is the absolute, resolved URL to fetch.
	URL string `json:"url"`

	// OriginURL is the page the link was found on.
	// Empty for the seed URL.
	OriginURL string `json:"origin_url,omitempty"`

	// Depth is the number of hops from the seed (0 for the seed itself).
	Depth int `json:"depth"`

	// Attempt counts fetch attempts already made for this entry.
	Attempt int `json:"attempt"`
}

// IsSeed reports whether the entry is the session's starting URL.
func (e FrontierEntry) IsSeed() bool {
	return e.Depth == 0
}
