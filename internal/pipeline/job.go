package pipeline

import (
	"time"

	"github.com/nao1215/mdscrape/internal/fetch"
	"github.com/nao1215/mdscrape/internal/model"
)

// PageJob carries one page through the pipeline. Each step fills in the
// fields the next one needs.
type PageJob struct {
	// Entry is the frontier entry the page was fetched for.
	Entry model.FrontierEntry

	// Page is the fetched page.
	Page *fetch.Page

	// Document is set by the extract step.
	Document *model.PageDocument

	// Markdown is set by the assemble step.
	Markdown string

	// Name is set by the name step.
	Name string

	// Paths is filled by the write step, one entry per writer.
	Paths []string

	// PerformedSteps lists the steps that completed, in order.
	PerformedSteps []string

	// Err is the error of the step that stopped the job.
	Err error
}

// NewPageJob creates a job for a fetched page.
func NewPageJob(entry model.FrontierEntry, page *fetch.Page) *PageJob {
	return &PageJob{
		Entry:          entry,
		Page:           page,
		Paths:          make([]string, 0),
		PerformedSteps: make([]string, 0),
	}
}

// Result converts the job into a page outcome.
func (j *PageJob) Result() model.PageResult {
	r := model.PageResult{
		URL:         j.Entry.URL,
		OriginURL:   j.Entry.OriginURL,
		Depth:       j.Entry.Depth,
		Name:        j.Name,
		Paths:       j.Paths,
		Status:      model.PageSaved,
		ProcessedAt: time.Now(),
	}
	if j.Document != nil {
		r.Title = j.Document.Title
		r.Blocks = len(j.Document.Blocks)
	}
	if j.Err != nil {
		r.Status = model.PageWriteFailed
		r.Error = j.Err.Error()
	}
	return r
}
