package model

import "fmt"

// PageStatus is the outcome of processing one page.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides the stable
// name stored in the history database.
type PageStatus int

const (
	// PageSaved means the page was extracted and every writer succeeded.
	PageSaved PageStatus = iota

	// PageWriteFailed means the page was fetched but a pipeline step failed.
	PageWriteFailed

	// PageFetchFailed means the page could not be fetched after all retries.
	PageFetchFailed
)

// String returns the stored name of the status.
func (s PageStatus) String() string {
	switch s {
	case PageSaved:
		return "saved"
	case PageWriteFailed:
		return "write_failed"
	case PageFetchFailed:
		return "fetch_failed"
	default:
		return "unknown"
	}
}

// ParsePageStatus converts a stored status name.
func ParsePageStatus(s string) (PageStatus, error) {
	switch s {
	case "saved":
		return PageSaved, nil
	case "write_failed":
		return PageWriteFailed, nil
	case "fetch_failed":
		return PageFetchFailed, nil
	default:
		return 0, fmt.Errorf("unknown page status %q", s)
	}
}

// MarshalText encodes the status by name so JSON output is readable.
func (s PageStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *PageStatus) UnmarshalText(text []byte) error {
	parsed, err := ParsePageStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
