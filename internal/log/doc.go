// Package log builds the slog loggers of mdscrape and keeps credentials
// out of their output.
//
// Private documentation sites are crawled with a cookie or extra request
// headers from the site file, and some publish links that carry an access
// token in the query string. The SecureHandler masks:
//   - attributes named after request headers (cookie, authorization, ...)
//     and after every header configured for a site
//   - every occurrence of a configured cookie or header value
//   - credential-like query parameters (?token=, ?api_key=, ?sig=) inside
//     logged URLs and error messages
//
// Page titles, paths and output names pass through unchanged.
//
// # Usage
//
//	redactor := log.NewRedactor(
//	    log.WithSecretKeys("X-Docs-Token"),
//	    log.WithSecrets("session=abc123"),
//	)
//	logger := log.NewLogger(os.Stderr, log.FormatText, verbose, redactor)
//	logger.Info("saved page", "url", "https://docs.example.com/guide?token=abc")
//	// url=https://docs.example.com/guide?token=***REDACTED***
package log
