package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/nao1215/mdscrape/internal/model"
)

// mockStep is a step that records calls and optionally fails.
type mockStep struct {
	name   string
	err    error
	called bool
	fn     func(job *PageJob)
}

func (m *mockStep) Name() string {
	return m.name
}

func (m *mockStep) Do(_ context.Context, job *PageJob) error {
	m.called = true
	if m.fn != nil {
		m.fn(job)
	}
	return m.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testEntry() model.FrontierEntry {
	return model.FrontierEntry{URL: "https://docs.example.com/guide/start", OriginURL: "https://docs.example.com/", Depth: 1}
}

func TestNew(t *testing.T) {
	t.Parallel()

	p := New()
	if n := len(p.StepNames()); n != 0 {
		t.Errorf("len(StepNames()) = %d, want 0", n)
	}
	if p.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
}

func TestPipeline_AddSteps(t *testing.T) {
	t.Parallel()

	p := New(WithLogger(quietLogger()))
	p.AddStep(&mockStep{name: "a"})
	p.AddSteps(&mockStep{name: "b"}, &mockStep{name: "c"})

	want := []string{"a", "b", "c"}
	if n := len(p.StepNames()); n != len(want) {
		t.Fatalf("len(StepNames()) = %d, want %d", n, len(want))
	}
	for i, name := range p.StepNames() {
		if name != want[i] {
			t.Errorf("StepNames()[%d] = %q, want %q", i, name, want[i])
		}
	}
}

func TestPipeline_Execute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New(WithLogger(quietLogger()))
		for _, name := range []string{"first", "second", "third"} {
			p.AddStep(&mockStep{name: name, fn: func(*PageJob) { order = append(order, name) }})
		}

		job := NewPageJob(testEntry(), nil)
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if len(order) != 3 || order[0] != "first" || order[2] != "third" {
			t.Errorf("order = %v", order)
		}
		if len(job.PerformedSteps) != 3 {
			t.Errorf("PerformedSteps = %v, want 3 entries", job.PerformedSteps)
		}
		if job.Err != nil {
			t.Errorf("job.Err = %v, want nil", job.Err)
		}
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		first := &mockStep{name: "first"}
		failing := &mockStep{name: "failing", err: errBoom}
		last := &mockStep{name: "last"}

		p := New(WithLogger(quietLogger()))
		p.AddSteps(first, failing, last)

		job := NewPageJob(testEntry(), nil)
		err := p.Execute(context.Background(), job)
		if !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want %v", err, errBoom)
		}
		if err.Error() != "failing: boom" {
			t.Errorf("error message = %q, want step name prefix", err.Error())
		}
		if !errors.Is(job.Err, errBoom) {
			t.Errorf("job.Err = %v, want %v", job.Err, errBoom)
		}
		if last.called {
			t.Error("step after the failure should not run")
		}
		if len(job.PerformedSteps) != 1 || job.PerformedSteps[0] != "first" {
			t.Errorf("PerformedSteps = %v, want [first]", job.PerformedSteps)
		}
	})

	t.Run("cancelled context runs nothing", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "step"}
		p := New(WithLogger(quietLogger()))
		p.AddStep(step)

		job := NewPageJob(testEntry(), nil)
		if err := p.Execute(ctx, job); !errors.Is(err, context.Canceled) {
			t.Fatalf("Execute() error = %v, want context.Canceled", err)
		}
		if step.called {
			t.Error("step should not run on a cancelled context")
		}
	})

	t.Run("empty pipeline", func(t *testing.T) {
		t.Parallel()

		p := New(WithLogger(quietLogger()))
		if err := p.Execute(context.Background(), NewPageJob(testEntry(), nil)); err != nil {
			t.Errorf("Execute() error = %v, want nil", err)
		}
	})
}

func TestPageJob_Result(t *testing.T) {
	t.Parallel()

	t.Run("saved", func(t *testing.T) {
		t.Parallel()

		job := NewPageJob(testEntry(), nil)
		job.Document = model.NewPageDocument("Start", testEntry().URL)
		job.Document.Append(model.NewHeading("Setup"))
		job.Name = "start_start"
		job.Paths = append(job.Paths, "out/start_start.md")

		r := job.Result()
		if r.Status != model.PageSaved {
			t.Errorf("Status = %v, want saved", r.Status)
		}
		if r.Title != "Start" || r.Blocks != 1 || r.Name != "start_start" {
			t.Errorf("Result() = %+v", r)
		}
		if r.URL != testEntry().URL || r.OriginURL != testEntry().OriginURL || r.Depth != 1 {
			t.Errorf("entry fields not copied: %+v", r)
		}
		if r.ProcessedAt.IsZero() {
			t.Error("ProcessedAt should be set")
		}
	})

	t.Run("failed", func(t *testing.T) {
		t.Parallel()

		job := NewPageJob(testEntry(), nil)
		job.Err = errors.New("write: disk full")

		r := job.Result()
		if r.Status != model.PageWriteFailed {
			t.Errorf("Status = %v, want write_failed", r.Status)
		}
		if r.Error != "write: disk full" {
			t.Errorf("Error = %q", r.Error)
		}
		if r.Title != "" {
			t.Errorf("Title = %q, want empty without a document", r.Title)
		}
	})
}
