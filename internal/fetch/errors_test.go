package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "robots refusal", err: fmt.Errorf("https://docs.example.com/a: %w", ErrDisallowedByRobots), want: true},
		{name: "not html", err: fmt.Errorf("https://docs.example.com/a.pdf: %w", ErrNotHTML), want: true},
		{name: "not found", err: fmt.Errorf("u: %w", &StatusError{Code: http.StatusNotFound}), want: true},
		{name: "forbidden", err: &StatusError{Code: http.StatusForbidden}, want: true},
		{name: "request timeout", err: &StatusError{Code: http.StatusRequestTimeout}, want: false},
		{name: "too many requests", err: &StatusError{Code: http.StatusTooManyRequests}, want: false},
		{name: "server error", err: &StatusError{Code: http.StatusBadGateway}, want: false},
		{name: "connection reset", err: errors.New("connection reset by peer"), want: false},
		{name: "cancelled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Permanent(tt.err); got != tt.want {
				t.Errorf("Permanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("https://docs.example.com/gone: %w", &StatusError{Code: http.StatusGone})
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Errorf("expected errors.Is(err, ErrUnexpectedStatus) for %v", err)
	}
	if got, want := err.Error(), "https://docs.example.com/gone: unexpected HTTP status: 410"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
