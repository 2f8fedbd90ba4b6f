package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/mdscrape/internal/crawler"
)

// SiteConfig holds site-specific configuration for one documentation host.
// Empty fields leave the value inherited from the defaults or the flags.
type SiteConfig struct {
	// Cookie is an HTTP cookie to use when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MainSelector is the CSS selector of the content region.
	MainSelector string `yaml:"mainSelector,omitempty"`

	// NavSelector is the CSS selector of the navigation region.
	NavSelector string `yaml:"navSelector,omitempty"`

	// Policy overrides the crawl policy ("scoped" or "unscoped").
	Policy string `yaml:"policy,omitempty"`

	// Naming overrides the naming policy ("url-tail" or "counter").
	Naming string `yaml:"naming,omitempty"`

	// Extraction overrides the extraction mode ("structural" or "legacy").
	Extraction string `yaml:"extraction,omitempty"`

	// Depth overrides the maximum crawl depth for this site.
	// If zero, the global MaxDepth is used; -1 removes the limit.
	Depth int `yaml:"depth,omitempty"`

	// AllowedHosts are the hostnames links may point to.
	AllowedHosts []string `yaml:"allowedHosts,omitempty"`

	// IgnorePatterns are URL patterns to skip during crawling.
	// Patterns are matched against the URL path using glob syntax.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns are URL patterns to follow during crawling.
	// If specified, only URLs matching these patterns are crawled.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .mdscrape configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are hostnames without scheme or port (e.g., "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host.
// It merges the site-specific configuration over the defaults.
// Host lookup is case-insensitive.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults.clone()

	site, ok := cf.Sites[host]
	if !ok {
		for k, v := range cf.Sites {
			if strings.EqualFold(k, host) {
				site, ok = v, true
				break
			}
		}
	}
	if !ok {
		return result
	}
	return result.merge(site)
}

// merge returns s with every non-empty field of o applied over it.
// Headers are merged key by key; lists are replaced.
func (s SiteConfig) merge(o SiteConfig) SiteConfig {
	if o.Cookie != "" {
		s.Cookie = o.Cookie
	}
	if len(o.Headers) > 0 {
		if s.Headers == nil {
			s.Headers = make(map[string]string, len(o.Headers))
		}
		maps.Copy(s.Headers, o.Headers)
	}
	if o.MainSelector != "" {
		s.MainSelector = o.MainSelector
	}
	if o.NavSelector != "" {
		s.NavSelector = o.NavSelector
	}
	if o.Policy != "" {
		s.Policy = o.Policy
	}
	if o.Naming != "" {
		s.Naming = o.Naming
	}
	if o.Extraction != "" {
		s.Extraction = o.Extraction
	}
	if o.Depth != 0 {
		s.Depth = o.Depth
	}
	if len(o.AllowedHosts) > 0 {
		s.AllowedHosts = slices.Clone(o.AllowedHosts)
	}
	if len(o.IgnorePatterns) > 0 {
		s.IgnorePatterns = slices.Clone(o.IgnorePatterns)
	}
	if len(o.FollowPatterns) > 0 {
		s.FollowPatterns = slices.Clone(o.FollowPatterns)
	}
	return s
}

// clone returns a copy that shares no maps or slices with s.
func (s SiteConfig) clone() SiteConfig {
	s.Headers = maps.Clone(s.Headers)
	s.AllowedHosts = slices.Clone(s.AllowedHosts)
	s.IgnorePatterns = slices.Clone(s.IgnorePatterns)
	s.FollowPatterns = slices.Clone(s.FollowPatterns)
	return s
}

// Validate checks the names and the depth used in the site configuration.
func (s SiteConfig) Validate() error {
	if s.Depth < crawler.UnlimitedDepth {
		return ErrInvalidMaxDepth
	}
	return validateNames(s.Policy, s.Naming, s.Extraction)
}

// Credentials returns the header names and the cookie and header values of
// every site in the file, for log redaction. A cookie contributes both the
// whole string and each of its values.
func (cf *File) Credentials() (headerNames, values []string) {
	collect := func(s SiteConfig) {
		if s.Cookie != "" {
			values = append(values, s.Cookie)
			for _, part := range strings.Split(s.Cookie, ";") {
				if _, v, ok := strings.Cut(part, "="); ok {
					values = append(values, strings.TrimSpace(v))
				}
			}
		}
		for name, v := range s.Headers {
			headerNames = append(headerNames, name)
			values = append(values, v)
		}
	}

	collect(cf.Defaults)
	for _, host := range slices.Sorted(maps.Keys(cf.Sites)) {
		collect(cf.Sites[host])
	}
	return headerNames, values
}

// Resolve returns the effective settings for a seed host: the global
// configuration with the file's defaults and then the host's entry applied.
func (c *Config) Resolve(host string) SiteConfig {
	effective := SiteConfig{
		MainSelector: c.MainSelector,
		NavSelector:  c.NavSelector,
		Policy:       c.Policy,
		Naming:       c.Naming,
		Extraction:   c.Extraction,
		Depth:        c.MaxDepth,
		AllowedHosts: slices.Clone(c.AllowedHosts),
	}
	if c.SiteConfigs == nil {
		return effective
	}
	return effective.merge(c.SiteConfigs.GetSiteConfig(host))
}
