package model

import (
	"time"

	"github.com/google/uuid"
)

// CrawlStats counts what one (method, year) crawl produced.
type CrawlStats struct {
	Method Method `json:"method"`
	Year   string `json:"year"`

	Universities int `json:"universities"`
	Departments  int `json:"departments"`
	Lists        int `json:"lists"`

	PersonsInserted int `json:"persons_inserted"`
	PersonsUpdated  int `json:"persons_updated"`
	PersonsSkipped  int `json:"persons_skipped"`

	// SkippedBranches counts universities and departments abandoned after a
	// failed fetch, extraction or save.
	SkippedBranches int `json:"skipped_branches"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Error     error         `json:"-"`
	ErrorText string        `json:"error,omitempty"`
}

// Failed reports whether the crawl was aborted.
func (s *CrawlStats) Failed() bool {
	return s.Error != nil
}

// RunReport collects the results of one scrape invocation.
type RunReport struct {
	// ID identifies the run in logs and reports.
	ID string `json:"id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Available is the year discovery result, empty when the run was scoped
	// to an explicit method and year.
	Available []AvailableYears `json:"available,omitempty"`

	Crawls []*CrawlStats `json:"crawls"`

	// Errors lists the pipeline steps that failed, in execution order.
	Errors []StepError `json:"errors,omitempty"`
}

// StepError records one failed pipeline step.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// NewRunReport creates a report with a fresh run identifier.
func NewRunReport() *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Crawls:    make([]*CrawlStats, 0),
	}
}

// Add appends the stats of a finished crawl.
func (r *RunReport) Add(stats *CrawlStats) {
	if stats.Error != nil {
		stats.ErrorText = stats.Error.Error()
	}
	r.Crawls = append(r.Crawls, stats)
}

// RecordStepError appends a failed step.
func (r *RunReport) RecordStepError(step string, err error) {
	r.Errors = append(r.Errors, StepError{Step: step, Message: err.Error()})
}

// Failures returns the number of failed steps.
func (r *RunReport) Failures() int {
	return len(r.Errors)
}

// Totals sums the per-crawl counters.
func (r *RunReport) Totals() CrawlStats {
	var t CrawlStats
	for _, c := range r.Crawls {
		t.Universities += c.Universities
		t.Departments += c.Departments
		t.Lists += c.Lists
		t.PersonsInserted += c.PersonsInserted
		t.PersonsUpdated += c.PersonsUpdated
		t.PersonsSkipped += c.PersonsSkipped
		t.SkippedBranches += c.SkippedBranches
		t.Duration += c.Duration
	}
	return t
}
