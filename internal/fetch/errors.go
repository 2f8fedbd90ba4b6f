package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

// Fetch errors. All are page-local: the crawler logs them and moves on.
var (
	// ErrDisallowedByRobots is returned when robots.txt forbids the URL.
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrInvalidProxyAddress is returned when the proxy address is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")
)

// StatusError carries the status code of a non-2xx response.
// errors.Is(err, ErrUnexpectedStatus) holds for it.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.Code)
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Permanent reports whether fetching the same URL again cannot succeed:
// robots.txt refusals, non-HTML responses and 4xx statuses other than
// 408 and 429.
func Permanent(err error) bool {
	if errors.Is(err, ErrDisallowedByRobots) || errors.Is(err, ErrNotHTML) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return false
		}
		return se.Code >= 400 && se.Code < 500
	}
	return false
}
