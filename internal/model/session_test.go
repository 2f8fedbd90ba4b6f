package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPageStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   PageStatus
		expected string
	}{
		{PageSaved, "saved"},
		{PageWriteFailed, "write_failed"},
		{PageFetchFailed, "fetch_failed"},
		{PageStatus(99), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()

			if got := tc.status.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
			if tc.expected == "unknown" {
				if _, err := ParsePageStatus(tc.expected); err == nil {
					t.Error("expected error for unknown status")
				}
				return
			}
			parsed, err := ParsePageStatus(tc.expected)
			if err != nil {
				t.Fatalf("ParsePageStatus failed: %v", err)
			}
			if parsed != tc.status {
				t.Errorf("got %v, expected %v", parsed, tc.status)
			}
		})
	}
}

func TestPageStatusJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(PageResult{URL: "https://d/a", Status: PageFetchFailed})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"status":"fetch_failed"`) {
		t.Errorf("expected status by name, got %s", data)
	}

	var got PageResult
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Status != PageFetchFailed {
		t.Errorf("got %v, expected %v", got.Status, PageFetchFailed)
	}

	if err := json.Unmarshal([]byte(`{"status":"lost"}`), &got); err == nil {
		t.Error("expected error for unknown status name")
	}
}

func TestSessionReport(t *testing.T) {
	t.Parallel()

	t.Run("counts and saved pages", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("id-1", "https://d/", "scoped")
		r.AddPage(PageResult{URL: "https://d/", Status: PageSaved})
		r.AddPage(PageResult{URL: "https://d/a", Status: PageFetchFailed, Error: "timeout"})
		r.AddPage(PageResult{URL: "https://d/b", Status: PageSaved})
		r.AddPage(PageResult{URL: "https://d/c", Status: PageWriteFailed})

		saved, failed := r.Counts()
		if saved != 2 || failed != 2 {
			t.Errorf("expected 2 saved and 2 failed, got %d and %d", saved, failed)
		}
		pages := r.SavedPages()
		if len(pages) != 2 || pages[1].URL != "https://d/b" {
			t.Errorf("unexpected saved pages %+v", pages)
		}
	})

	t.Run("duration", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("id-2", "https://d/", "scoped")
		if r.Duration() != 0 {
			t.Error("expected zero duration before Finish")
		}
		r.StartedAt = time.Now().Add(-time.Minute)
		r.Finish()
		if r.Duration() < time.Minute {
			t.Errorf("expected at least a minute, got %v", r.Duration())
		}
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()

		r := NewSessionReport("id-3", "https://d/", "scoped")
		r.SetError(errors.New("invalid seed"))
		if r.ErrorMessage != "invalid seed" || r.Error == nil {
			t.Errorf("unexpected error fields %+v", r)
		}
		r.SetError(nil)
		if r.Error != nil {
			t.Error("expected nil error to clear Error")
		}
	})
}
