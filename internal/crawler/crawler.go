package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/comtw/admscrape/internal/database"
	"github.com/comtw/admscrape/internal/extract"
	"github.com/comtw/admscrape/internal/model"
)

var tracer = otel.Tracer("github.com/comtw/admscrape/internal/crawler")

// DefaultBaseURL is the site every template is resolved against.
const DefaultBaseURL = "https://www.com.tw/"

var (
	// ErrNoUniversities is returned when a university list yields no school.
	ErrNoUniversities = errors.New("university list is empty")

	// ErrInvalidBaseURL is returned when the base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("invalid base URL")
)

// Fetcher retrieves the markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Store persists one admission list with its persons.
type Store interface {
	SaveAdmissionList(ctx context.Context, key database.ListKey, fields database.ListFields, persons []database.Person) (database.SaveResult, error)
}

// Crawler crawls one method. It is not safe for concurrent use: the site
// session behind the fetcher is shared and crawls run one after another.
type Crawler struct {
	fetcher Fetcher
	store   Store
	desc    Descriptor
	baseURL string
	logger  *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithBaseURL sets the URL the descriptor templates are resolved against.
func WithBaseURL(base string) Option {
	return func(c *Crawler) {
		c.baseURL = base
	}
}

// New creates a Crawler for desc.
func New(fetcher Fetcher, store Store, desc Descriptor, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: fetcher,
		store:   store,
		desc:    desc,
		baseURL: DefaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "crawler", "method", string(desc.Method))
	return c
}

// Method returns the method this crawler walks.
func (c *Crawler) Method() model.Method {
	return c.desc.Method
}

// Crawl walks every track of the method for year. Tracks are independent:
// a track whose university list cannot be read is reported in the returned
// error while the remaining tracks are still crawled. The stats are returned
// even when err is non-nil.
func (c *Crawler) Crawl(ctx context.Context, year string) (*model.CrawlStats, error) {
	stats := &model.CrawlStats{
		Method:    c.desc.Method,
		Year:      year,
		StartedAt: time.Now(),
	}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
	}()

	base, err := url.Parse(c.baseURL)
	if err != nil {
		stats.Error = fmt.Errorf("%w %q: %w", ErrInvalidBaseURL, c.baseURL, err)
		return stats, stats.Error
	}

	logger := c.logger.With("year", year)
	var errs []error
	for _, track := range c.desc.Tracks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		w := &walk{
			Crawler: c,
			base:    base,
			year:    year,
			track:   track,
			stats:   stats,
			logger:  logger.With("track", track.Name),
		}
		if err := w.run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("track %s: %w", track.Name, err))
		}
	}

	stats.Error = errors.Join(errs...)
	return stats, stats.Error
}

// walk is the state of one track crawl.
type walk struct {
	*Crawler
	base   *url.URL
	year   string
	track  Track
	stats  *model.CrawlStats
	logger *slog.Logger
}

func (w *walk) run(ctx context.Context) error {
	listURL := w.resolve(w.track.UniversityList, "", "")
	w.logger.Info("fetching university list", "url", listURL)

	markup, err := w.fetcher.Fetch(ctx, listURL)
	if err != nil {
		w.logger.Error("university list fetch failed", "url", listURL, "error", err)
		return fmt.Errorf("failed to fetch university list: %w", err)
	}
	schools, err := extract.Universities(markup)
	if err != nil {
		w.logger.Error("university list extraction failed", "url", listURL, "error", err)
		return fmt.Errorf("failed to extract university list: %w", err)
	}
	if len(schools) == 0 {
		w.logger.Warn("university list is empty", "url", listURL)
		return ErrNoUniversities
	}
	w.logger.Info("university list fetched", "schools", len(schools))

	for _, school := range schools {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.stats.Universities++
		w.university(ctx, school)
	}
	return ctx.Err()
}

func (w *walk) university(ctx context.Context, school model.School) {
	logger := w.logger.With("school", school.Name, "school_code", school.Code)
	listURL := w.resolve(w.track.DepartmentList, school.Code, "")

	markup, err := w.fetcher.Fetch(ctx, listURL)
	if err != nil {
		logger.Warn("department list fetch failed, skipping school", "url", listURL, "error", err)
		w.stats.SkippedBranches++
		return
	}
	departments, err := w.desc.Departments.Extract(markup)
	if err != nil {
		logger.Warn("department list extraction failed, skipping school", "url", listURL, "error", err)
		w.stats.SkippedBranches++
		return
	}
	if len(departments) == 0 {
		logger.Info("school lists no department", "url", listURL)
		return
	}
	logger.Info("department list fetched", "departments", len(departments))

	for _, dept := range departments {
		if ctx.Err() != nil {
			return
		}
		w.stats.Departments++
		w.department(ctx, school, dept, logger)
	}
}

func (w *walk) department(ctx context.Context, school model.School, dept model.Department, logger *slog.Logger) {
	ctx, span := tracer.Start(ctx, "crawler.department", trace.WithAttributes(
		attribute.String("method", string(w.desc.Method)),
		attribute.String("year", w.year),
		attribute.String("school", school.Code),
		attribute.String("department", dept.Code),
	))
	defer span.End()

	logger = logger.With("department", dept.Name, "department_code", dept.Code)
	pageURL := w.resolve(w.track.Admission, school.Code, dept.Code)

	skip := func(msg string, err error) {
		logger.Warn(msg, "url", pageURL, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		w.stats.SkippedBranches++
	}

	markup, err := w.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		skip("admission list fetch failed, skipping department", err)
		return
	}
	page, err := w.desc.Admissions.Extract(markup)
	if err != nil {
		skip("admission list extraction failed, skipping department", err)
		return
	}
	if page.IsEmpty() {
		logger.Info("admission list is empty", "url", pageURL)
		return
	}

	fields, persons := w.desc.Records(Listing{
		Track:      w.track,
		School:     school,
		Department: dept,
		Page:       page,
	})
	key := database.ListKey{
		Year:           w.year,
		Method:         w.desc.Method.Label(),
		SchoolCode:     school.Code,
		DepartmentCode: dept.Code,
		SchoolName:     school.Name,
		DepartmentName: dept.Name,
	}
	res, err := w.store.SaveAdmissionList(ctx, key, fields, persons)
	if err != nil {
		skip("admission list save failed, skipping department", err)
		return
	}

	w.stats.Lists++
	w.stats.PersonsInserted += res.Inserted
	w.stats.PersonsUpdated += res.Updated
	w.stats.PersonsSkipped += res.Skipped
	span.SetAttributes(attribute.Int("persons", len(persons)))
	logger.Info("admission list saved",
		"list_id", res.ListID,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
}

// resolve expands a template and resolves it against the base URL.
func (w *walk) resolve(template, school, department string) string {
	ref := &url.URL{Path: expand(template, w.year, school, department)}
	return w.base.ResolveReference(ref).String()
}
