package pipeline

import (
	"context"
	"fmt"

	"github.com/nao1215/mdscrape/internal/extract"
	"github.com/nao1215/mdscrape/internal/markdown"
	"github.com/nao1215/mdscrape/internal/naming"
	"github.com/nao1215/mdscrape/internal/render"
)

// ExtractStep builds the page's PageDocument from its content region.
type ExtractStep struct {
	extractor *extract.Extractor
}

// NewExtractStep creates an extract step.
func NewExtractStep(extractor *extract.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do extracts the document. A page without a content region still yields
// a title-only document.
func (s *ExtractStep) Do(_ context.Context, job *PageJob) error {
	if job.Page == nil {
		return ErrNoPage
	}
	job.Document = s.extractor.Extract(job.Page.Document, job.Page.Main, job.Entry.URL)
	return nil
}

// AssembleStep serializes the document to Markdown.
type AssembleStep struct{}

// NewAssembleStep creates an assemble step.
func NewAssembleStep() *AssembleStep {
	return &AssembleStep{}
}

// Name returns the step name.
func (s *AssembleStep) Name() string {
	return "assemble"
}

// Do assembles the Markdown text.
func (s *AssembleStep) Do(_ context.Context, job *PageJob) error {
	if job.Document == nil {
		return ErrNoDocument
	}
	job.Markdown = markdown.Assemble(job.Document)
	return nil
}

// NameStep derives the output name from the title and source URL.
//
// Design decision: The namer is shared by every job of a session because:
//  1. Collision handling needs the names already issued in the session
//  2. The counter policy numbers pages across the whole session
//  3. The caller decides whether sessions of one run share it too
type NameStep struct {
	namer naming.Namer
}

// NewNameStep creates a name step.
func NewNameStep(namer naming.Namer) *NameStep {
	return &NameStep{namer: namer}
}

// Name returns the step name.
func (s *NameStep) Name() string {
	return "name"
}

// Do sets job.Name.
func (s *NameStep) Do(_ context.Context, job *PageJob) error {
	if job.Document == nil {
		return ErrNoDocument
	}
	job.Name = s.namer.Name(job.Document.Title, job.Document.SourceURL)
	return nil
}

// WriteStep hands the Markdown to every configured writer.
type WriteStep struct {
	writers []render.Writer
}

// NewWriteStep creates a write step. Writers run in the given order.
func NewWriteStep(writers ...render.Writer) *WriteStep {
	return &WriteStep{writers: writers}
}

// Name returns the step name.
func (s *WriteStep) Name() string {
	return "write"
}

// Do writes the page and records each written path.
// It stops at the first writer that fails.
func (s *WriteStep) Do(ctx context.Context, job *PageJob) error {
	if job.Document == nil {
		return ErrNoDocument
	}
	if job.Name == "" {
		return ErrNoName
	}

	out := render.Output{
		Name:      job.Name,
		Title:     job.Document.Title,
		SourceURL: job.Document.SourceURL,
		Markdown:  job.Markdown,
	}
	for _, w := range s.writers {
		path, err := w.Write(ctx, out)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", job.Name, err)
		}
		job.Paths = append(job.Paths, path)
	}
	return nil
}

// NewPagePipeline creates the standard extract, assemble, name and write
// pipeline for one session.
func NewPagePipeline(extractor *extract.Extractor, namer naming.Namer, writers []render.Writer, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewExtractStep(extractor),
		NewAssembleStep(),
		NewNameStep(namer),
		NewWriteStep(writers...),
	)
	return p
}
