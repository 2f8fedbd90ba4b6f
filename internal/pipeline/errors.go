package pipeline

import "errors"

// Pipeline errors.
var (
	// ErrNoPage is returned when a job reaches extraction without a fetched page.
	ErrNoPage = errors.New("job has no fetched page")

	// ErrNoDocument is returned when a step needs an extracted document.
	ErrNoDocument = errors.New("job has no extracted document")

	// ErrNoName is returned when writing a job that was not named.
	ErrNoName = errors.New("job has no output name")
)
