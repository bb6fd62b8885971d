package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/comtw/admscrape/internal/model"
)

// Crawler crawls one method for a year. *crawler.Crawler implements it.
type Crawler interface {
	Method() model.Method
	Crawl(ctx context.Context, year string) (*model.CrawlStats, error)
}

// CrawlStep crawls one (method, year) pair.
type CrawlStep struct {
	crawler Crawler
	year    string
}

// NewCrawlStep creates a step crawling year with c.
func NewCrawlStep(c Crawler, year string) *CrawlStep {
	return &CrawlStep{crawler: c, year: year}
}

// Name returns "crawl/<method>/<year>".
func (s *CrawlStep) Name() string {
	return crawlStepName(s.crawler.Method(), s.year)
}

func crawlStepName(method model.Method, year string) string {
	return fmt.Sprintf("crawl/%s/%s", method, year)
}

// Do runs the crawl and adds its stats to the report, failed or not.
func (s *CrawlStep) Do(ctx context.Context, report *model.RunReport) error {
	stats, err := s.crawler.Crawl(ctx, s.year)
	if stats == nil {
		stats = &model.CrawlStats{
			Method:    s.crawler.Method(),
			Year:      s.year,
			StartedAt: time.Now(),
			Error:     err,
		}
	}
	report.Add(stats)
	return err
}
