package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/comtw/admscrape/internal/config"
	"github.com/comtw/admscrape/internal/crawler"
	"github.com/comtw/admscrape/internal/database"
	"github.com/comtw/admscrape/internal/model"
	"github.com/comtw/admscrape/internal/ocr"
	"github.com/comtw/admscrape/internal/ocr/tesseract"
	"github.com/comtw/admscrape/internal/pipeline"
	"github.com/comtw/admscrape/internal/report"
)

var (
	// errInvalidYear is returned for a --year that is not a positive number.
	errInvalidYear = errors.New("invalid academic year")

	// errCrawlsFailed makes the process exit non-zero after a partial run.
	errCrawlsFailed = errors.New("some crawls failed")
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl admission results into the database",
		Long: `Scrape discovers the academic years offered on the site's landing page
and crawls every (method, year) pair, or only the ones selected with
--method and --year. Giving both skips discovery entirely.

Methods:
  exam     分科測驗 (exam-score placement)
  star     大學繁星 (star recommendation)
  cross    學測查榜 (cross-check application, general and tech tracks)
  vtech    統測甄選 (vocational selection)
  techreg  統測分發 (vocational placement)

A failed school, department or crawl is logged and skipped; the command
exits non-zero when at least one crawl failed.

Examples:
  # Crawl everything the site offers
  admscrape scrape

  # Crawl one method for every discovered year
  admscrape scrape -m star

  # Crawl one method and year and keep a Markdown report
  admscrape scrape -m exam -y 113 --report reports/exam-113.md`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("method", "m", "",
		"Admission method: exam, star, cross, vtech or techreg (default: all)")
	cmd.Flags().StringP("year", "y", "",
		"Academic year, e.g. 113 (default: every discovered year)")
	cmd.Flags().StringP("report", "r", "",
		"Write a run report to this file; .json and .txt select the format, anything else is Markdown")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	sel, err := buildSelection(cmd)
	if err != nil {
		return err
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}

	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := withShutdown(cmd.Context(), e.logger)
	defer cancel()

	run := model.NewRunReport()
	runErr := runScrape(ctx, e.cfg, sel, run, e.logger.With("run", run.ID))

	if err := writeReports(cmd.OutOrStdout(), reportPath, run); err != nil {
		e.logger.Error("failed to write report", "path", reportPath, "error", err)
	} else if reportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", reportPath)
	}

	if runErr != nil {
		return runErr
	}
	if n := run.Failures(); n > 0 {
		return fmt.Errorf("%w: %d of %d", errCrawlsFailed, n, len(run.Crawls))
	}
	return nil
}

// buildSelection validates --method and --year.
func buildSelection(cmd *cobra.Command) (pipeline.Selection, error) {
	var sel pipeline.Selection

	method, err := cmd.Flags().GetString("method")
	if err != nil {
		return sel, err
	}
	if method != "" {
		if sel.Method, err = model.ParseMethod(method); err != nil {
			return sel, err
		}
	}

	year, err := cmd.Flags().GetString("year")
	if err != nil {
		return sel, err
	}
	if year != "" {
		if n, err := strconv.Atoi(year); err != nil || n <= 0 {
			return sel, fmt.Errorf("%w: %q", errInvalidYear, year)
		}
		sel.Year = year
	}

	return sel, nil
}

// runScrape wires the fetcher, store and OCR decoder into an orchestrator
// and runs sel. Step failures are recorded in run rather than returned.
func runScrape(ctx context.Context, cfg *config.Config, sel pipeline.Selection, run *model.RunReport, logger *slog.Logger) error {
	f, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}

	store, err := database.Open(ctx, storeOptions(cfg.Database), database.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	engine, err := tesseract.New(tesseract.Options{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to start OCR engine: %w", err)
	}
	defer func() { _ = engine.Close() }() //nolint:errcheck // nothing to do on shutdown

	decoder := ocr.NewDecoder(engine, ocr.WithLogger(logger))
	if err := decoder.LoadCache(cfg.OCR.CachePath); err != nil {
		logger.Warn("starting with an empty ocr cache", "error", err)
	}
	defer func() {
		if !decoder.Dirty() {
			return
		}
		if err := decoder.SaveCache(cfg.OCR.CachePath); err != nil {
			logger.Error("failed to save ocr cache", "error", err)
		}
	}()

	descriptors := crawler.Descriptors(decoder, crawler.GlyphOptions{
		Scale:     cfg.OCR.GlyphScale,
		IconWidth: cfg.OCR.StatusIconWidth,
		Logger:    logger.With("component", "extract"),
	})
	o := pipeline.NewOrchestrator(f, store, descriptors,
		pipeline.WithOrchestratorLogger(logger),
		pipeline.WithBaseURL(cfg.Fetcher.BaseURL),
		pipeline.WithStepPacing(cfg.Crawl.PipelineDelay),
	)

	logger.Info("starting scrape",
		"method", sel.Method,
		"year", sel.Year,
		"driver", cfg.Database.Driver,
		"ocrCache", decoder.CacheLen(),
	)
	if err := o.Run(ctx, sel, run); err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	totals := run.Totals()
	logger.Info("scrape finished",
		"crawls", len(run.Crawls),
		"failed", run.Failures(),
		"lists", totals.Lists,
		"inserted", totals.PersonsInserted,
		"updated", totals.PersonsUpdated,
	)
	return nil
}

// storeOptions starts from the SQLite defaults and applies the configured
// driver and DSN.
func storeOptions(cfg config.DatabaseConfig) database.Options {
	opts := database.DefaultOptions(cfg.Path)
	if cfg.Driver != "" {
		opts.Driver = cfg.Driver
	}
	opts.DSN = cfg.DSN
	return opts
}

// writeReports prints the summary table to stdout and, when path is set,
// writes run to path in the format its extension selects.
func writeReports(stdout io.Writer, path string, run *model.RunReport) (err error) {
	writers := []report.Writer{report.NewTableWriter(stdout)}

	if path != "" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		writers = append(writers, report.NewWriter(report.FormatForPath(path), f))
	}

	return report.NewMultiWriter(writers...).Write(run)
}
