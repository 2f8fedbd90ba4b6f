// Package config provides configuration structures and utilities for mdscrape.
// It defines the crawl, extraction and output options, and the per-site YAML
// overrides read from the .mdscrape file.
package config
