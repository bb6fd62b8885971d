package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/comtw/admscrape/internal/model"
)

// TableWriter prints the run report as terminal tables.
type TableWriter struct {
	baseWriter
}

// NewTableWriter creates a TableWriter that outputs to the given writer.
func NewTableWriter(output io.Writer) *TableWriter {
	return &TableWriter{baseWriter: newBaseWriter(output)}
}

func newTable(output io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(output)
	return t
}

// Write prints one row per crawl and a totals footer.
func (w *TableWriter) Write(report *model.RunReport) error {
	t := newTable(w.output)
	t.SetTitle("Run " + report.ID)
	t.AppendHeader(table.Row{"Method", "Year", "Lists", "Inserted", "Updated", "Skipped", "Skipped branches", "Duration", "Status"})
	for _, c := range report.Crawls {
		t.AppendRow(table.Row{
			string(c.Method), c.Year, c.Lists,
			c.PersonsInserted, c.PersonsUpdated, c.PersonsSkipped,
			c.SkippedBranches, c.Duration.Round(time.Second).String(), status(c),
		})
	}
	totals := report.Totals()
	t.AppendFooter(table.Row{
		"total", "", totals.Lists,
		totals.PersonsInserted, totals.PersonsUpdated, totals.PersonsSkipped,
		totals.SkippedBranches, totals.Duration.Round(time.Second).String(),
		strconv.Itoa(report.Failures()) + " failed",
	})
	t.Render()
	return nil
}

// WriteYearsTable prints the years offered for each method.
func WriteYearsTable(w io.Writer, available []model.AvailableYears) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"Method", "Label", "Years"})
	for _, a := range available {
		years := strings.Join(a.Years, " ")
		if years == "" {
			years = "-"
		}
		t.AppendRow(table.Row{string(a.Method), a.Label, years})
	}
	t.Render()
	return nil
}
