package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comtw/admscrape/internal/model"
)

// ErrStepPanic wraps a panic recovered from a step.
var ErrStepPanic = errors.New("step panicked")

// Step is one unit of work in a scrape run.
type Step interface {
	// Do runs the step and records its results in report.
	Do(ctx context.Context, report *model.RunReport) error

	// Name identifies the step in logs and in the report.
	Name() string
}

// Pipeline runs steps one after another.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError keeps running the remaining steps after a failure.
	continueOnError bool

	// delay is the pause between the end of one step and the start of the
	// next; zero means no pause.
	delay time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps the pipeline going when a step fails. The failure
// is still logged and recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithPacing pauses for delay after each step before the next one starts,
// however long the step took. The first step starts immediately and no pause
// follows the last one. A non-positive delay disables pacing.
func WithPacing(delay time.Duration) Option {
	return func(p *Pipeline) {
		p.delay = max(delay, 0)
	}
}

// New creates an empty Pipeline.
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
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order. Failed steps are recorded in report.
//
// Without WithContinueOnError the first failure is returned and the remaining
// steps are not run. With it, Execute returns nil once every step has run.
// Cancellation of ctx always stops the pipeline and returns ctx.Err().
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", err)
			return err
		}
		if i > 0 && p.delay > 0 {
			p.logger.Debug("pausing before next step", "step", step.Name(), "delay", p.delay)
			if err := pause(ctx, p.delay); err != nil {
				p.logger.Warn("pipeline cancelled while pacing", "step", step.Name(), "reason", err)
				return err
			}
		}

		p.logger.Info("executing step", "step", step.Name(), "run", report.ID)
		start := time.Now()

		if err := runStep(ctx, step, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run", report.ID,
				"error", err,
			)
			report.RecordStepError(step.Name(), err)
			if !p.continueOnError {
				return err
			}
			continue
		}

		p.logger.Debug("step completed", "step", step.Name(), "elapsed", time.Since(start))
	}
	return nil
}

// runStep runs step and turns a panic into an error.
func runStep(ctx context.Context, step Step, report *model.RunReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrStepPanic, step.Name(), r)
		}
	}()
	return step.Do(ctx, report)
}

// pause blocks for d or until ctx is done.
func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
