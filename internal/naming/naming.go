package naming

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/mdscrape/internal/model"
)

// Policy selects how names are disambiguated.
type Policy string

const (
	// PolicyURLTail appends the last URL path segment to the base.
	PolicyURLTail Policy = "url-tail"

	// PolicyCounter appends a per-session sequence number to the base.
	PolicyCounter Policy = "counter"
)

// Namer returns the output name (without extension) for a page.
type Namer interface {
	Name(title, sourceURL string) string
}

// New creates a Namer for the given policy.
func New(policy Policy) (Namer, error) {
	switch policy {
	case PolicyURLTail, "":
		return NewURLTailNamer(), nil
	case PolicyCounter:
		return NewCounterNamer(), nil
	default:
		return nil, fmt.Errorf("unknown naming policy %q", policy)
	}
}

var (
	// disallowedChars matches everything that may not appear in a base.
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9_\- ]`)

	// nonWordChars matches characters replaced in URL path segments.
	nonWordChars = regexp.MustCompile(`\W`)

	lower = cases.Lower(language.Und)
)

// Base returns the sanitized, lowercased title used as the name prefix.
// It never returns an empty string.
func Base(title string) string {
	base := lower.String(title)
	base = disallowedChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(base)
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" {
		return model.UntitledTitle
	}
	return base
}
