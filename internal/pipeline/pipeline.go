package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the job as left by the
// previous step.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state (extractor, namer, writers)
// 2. It provides a Name() method for logging and debugging
// 3. Tests can substitute individual steps
type Step interface {
	// Do executes the step on the job.
	Do(ctx context.Context, job *PageJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps on the job and stops at the first failure.
// The failing step's error is stored in job.Err and returned wrapped with
// the step name.
//
// Design decision: The context is checked before the first step only. Once
// a page has started it runs to completion or fails, so a cancelled crawl
// never leaves a half-written page behind.
func (p *Pipeline) Execute(ctx context.Context, job *PageJob) error {
	if err := ctx.Err(); err != nil {
		job.Err = err
		return err
	}

	for _, step := range p.steps {
		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", job.Entry.URL,
		)

		if err := step.Do(ctx, job); err != nil {
			err = fmt.Errorf("%s: %w", step.Name(), err)
			job.Err = err
			return err
		}

		job.PerformedSteps = append(job.PerformedSteps, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
