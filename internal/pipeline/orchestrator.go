package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/comtw/admscrape/internal/crawler"
	"github.com/comtw/admscrape/internal/extract"
	"github.com/comtw/admscrape/internal/model"
)

// ErrNoDescriptor is returned when a planned method has no crawler descriptor.
var ErrNoDescriptor = errors.New("no crawler descriptor for method")

// Selection narrows a run. Empty fields select everything the landing page
// offers.
type Selection struct {
	Method model.Method
	Year   string
}

// Target is one planned (method, year) crawl.
type Target struct {
	Method model.Method
	Year   string
}

// Orchestrator discovers what to crawl and drives the crawlers.
type Orchestrator struct {
	fetcher     crawler.Fetcher
	store       crawler.Store
	descriptors map[model.Method]crawler.Descriptor
	baseURL     string
	pacing      time.Duration

	// base is handed to crawlers and pipelines; logger adds the component.
	base   *slog.Logger
	logger *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger passed down to pipelines and crawlers.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.base = logger
	}
}

// WithBaseURL sets the site root for the landing page and crawl templates.
func WithBaseURL(base string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.baseURL = base
	}
}

// WithStepPacing sets the pause between the end of one crawl and the start of
// the next.
func WithStepPacing(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.pacing = delay
	}
}

// NewOrchestrator creates an Orchestrator crawling with descriptors.
func NewOrchestrator(
	fetcher crawler.Fetcher,
	store crawler.Store,
	descriptors map[model.Method]crawler.Descriptor,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		store:       store,
		descriptors: descriptors,
		baseURL:     crawler.DefaultBaseURL,
		base:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.base.With("component", "orchestrator")
	return o
}

// Years fetches the landing page and returns the years offered per method.
func (o *Orchestrator) Years(ctx context.Context) ([]model.AvailableYears, error) {
	markup, err := o.fetcher.Fetch(ctx, o.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch landing page: %w", err)
	}
	return extract.Years(markup)
}

// Plan resolves sel into crawl targets. The landing page is consulted unless
// both method and year are given. available is nil when it was not fetched.
func (o *Orchestrator) Plan(ctx context.Context, sel Selection) (targets []Target, available []model.AvailableYears, err error) {
	if sel.Method != "" && !sel.Method.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", model.ErrUnknownMethod, sel.Method)
	}
	if sel.Method != "" && sel.Year != "" {
		return []Target{{Method: sel.Method, Year: sel.Year}}, nil, nil
	}

	available, err = o.Years(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, a := range available {
		if sel.Method != "" && a.Method != sel.Method {
			continue
		}
		for _, year := range a.Years {
			if sel.Year != "" && year != sel.Year {
				continue
			}
			targets = append(targets, Target{Method: a.Method, Year: year})
		}
	}
	return targets, available, nil
}

// Run plans sel and crawls every target, recording results in report.
// Individual crawl failures, including targets of a method without a
// descriptor, are recorded and do not stop the run. Planning failures and
// cancellation are returned.
func (o *Orchestrator) Run(ctx context.Context, sel Selection, report *model.RunReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	targets, available, err := o.Plan(ctx, sel)
	if err != nil {
		return err
	}
	report.Available = available

	if len(targets) == 0 {
		o.logger.Warn("nothing to crawl", "method", string(sel.Method), "year", sel.Year)
		return nil
	}

	p := New(
		WithLogger(o.base.With("component", "pipeline")),
		WithContinueOnError(true),
		WithPacing(o.pacing),
	)
	for _, t := range targets {
		desc, ok := o.descriptors[t.Method]
		if !ok {
			o.skipTarget(t, report)
			continue
		}
		c := crawler.New(o.fetcher, o.store, desc,
			crawler.WithBaseURL(o.baseURL),
			crawler.WithLogger(o.base),
		)
		p.AddStep(NewCrawlStep(c, t.Year))
	}

	o.logger.Info("starting run",
		"run", report.ID,
		"step_count", p.StepCount(),
		"steps", p.StepNames(),
	)
	return p.Execute(ctx, report)
}

// skipTarget records a target no descriptor can crawl as a failed step.
func (o *Orchestrator) skipTarget(t Target, report *model.RunReport) {
	err := fmt.Errorf("%w: %s", ErrNoDescriptor, t.Method)
	name := crawlStepName(t.Method, t.Year)

	o.logger.Error("step failed", "step", name, "run", report.ID, "error", err)
	report.Add(&model.CrawlStats{
		Method:    t.Method,
		Year:      t.Year,
		StartedAt: time.Now(),
		Error:     err,
	})
	report.RecordStepError(name, err)
}
