package crawler

import (
	"path/filepath"
	"strings"
)

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match a whole subtree
//
// Examples:
//   - "/blog/*" matches "/blog/2024/post", "/blog"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		ext := strings.TrimPrefix(pattern, "*")
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Bare file patterns like "changelog*" also match the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}

// pathAllowed applies ignore patterns, then follow patterns, to a URL path.
//
// Logic:
//  1. If the path matches any ignore pattern, it is rejected
//  2. If follow patterns are set and the path matches none, it is rejected
//  3. Otherwise it is accepted
func pathAllowed(path string, ignore, follow []string) bool {
	if path == "" {
		path = "/"
	}

	for _, pattern := range ignore {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(follow) == 0 {
		return true
	}
	for _, pattern := range follow {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}
