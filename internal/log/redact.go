package log

import (
	"regexp"
	"slices"
	"strings"
)

// MaskValue replaces every redacted value.
const MaskValue = "***REDACTED***"

// minSecretLen is the shortest configured secret that is masked inside
// other text. Shorter values would mask ordinary words.
const minSecretLen = 4

// headerKeys are attribute keys whose whole value is always masked.
// They are the request headers a site configuration can carry.
var headerKeys = []string{
	"authorization",
	"proxy-authorization",
	"cookie",
	"set-cookie",
	"x-api-key",
}

// secretQuery matches the value of a credential-like query parameter inside
// any text: a logged URL or an error message that quotes one.
var secretQuery = regexp.MustCompile(
	`(?i)([?&][a-z0-9_.\-]*(?:token|key|secret|password|passwd|signature|sig|auth|session)[a-z0-9_.\-]*=)[^&#\s"']+`,
)

// Redactor masks credentials in log attributes.
//
// Design decision: We redact known secrets rather than guessing from the
// shape of a value because:
//  1. Page titles, paths and output names are long alphanumeric strings too
//  2. The cookies and headers that leak are the ones in the site file
//  3. URLs are the only other place a crawl logs a credential
type Redactor struct {
	keys    map[string]struct{}
	secrets []string
}

// RedactorOption configures a Redactor.
type RedactorOption func(*Redactor)

// WithSecretKeys masks attributes with these keys, such as the names of
// configured request headers. Keys are compared case-insensitively.
func WithSecretKeys(keys ...string) RedactorOption {
	return func(r *Redactor) {
		for _, k := range keys {
			r.keys[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithSecrets masks every occurrence of these values, such as configured
// cookie and header values. Values shorter than four bytes are ignored.
func WithSecrets(values ...string) RedactorOption {
	return func(r *Redactor) {
		for _, v := range values {
			v = strings.TrimSpace(v)
			if len(v) >= minSecretLen && !slices.Contains(r.secrets, v) {
				r.secrets = append(r.secrets, v)
			}
		}
	}
}

// NewRedactor creates a Redactor that always masks the header keys.
func NewRedactor(opts ...RedactorOption) *Redactor {
	r := &Redactor{keys: make(map[string]struct{})}
	WithSecretKeys(headerKeys...)(r)
	for _, opt := range opts {
		opt(r)
	}
	// Longest first, so a cookie string is masked before one of its values.
	slices.SortFunc(r.secrets, func(a, b string) int { return len(b) - len(a) })
	return r
}

// SecretKey reports whether an attribute with this key is masked entirely.
func (r *Redactor) SecretKey(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// Redact masks configured secrets and credential query parameters in s.
func (r *Redactor) Redact(s string) string {
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, MaskValue)
	}
	return secretQuery.ReplaceAllString(s, "${1}"+MaskValue)
}
