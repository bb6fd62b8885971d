package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/comtw/admscrape/internal/model"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs the run report as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteMarkdown writes report to w as Markdown.
func WriteMarkdown(w io.Writer, report *model.RunReport) error {
	return NewMarkdownWriter(w).Write(report)
}

// Write renders the summary, per-crawl table, failures and discovered years.
func (w *MarkdownWriter) Write(report *model.RunReport) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeCrawls(md, report)
	w.writeFailures(md, report)
	w.writeAvailable(md, report)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Run %s*", report.ID)

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	totals := report.Totals()

	md.H1("Admission Scrape Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + report.ID + "`"},
			{"Started", report.StartedAt.Format(timeLayout)},
			{"Finished", formatTime(report.FinishedAt)},
			{"Crawls", strconv.Itoa(len(report.Crawls))},
			{"Lists saved", strconv.Itoa(totals.Lists)},
			{"Persons inserted", strconv.Itoa(totals.PersonsInserted)},
			{"Persons updated", strconv.Itoa(totals.PersonsUpdated)},
			{"Persons skipped", strconv.Itoa(totals.PersonsSkipped)},
		},
	})
	md.PlainText("")

	switch failures := report.Failures(); {
	case failures > 0:
		md.Warningf("%d step(s) failed. See the failures section below.", failures)
	case len(report.Crawls) == 0:
		md.Note("Nothing was crawled.")
	default:
		md.Tip("Every crawl completed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCrawls(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Crawls")
	md.PlainText("")

	if len(report.Crawls) == 0 {
		md.PlainText("No crawl was run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Crawls))
	for _, c := range report.Crawls {
		rows = append(rows, []string{
			c.Method.Label(),
			c.Year,
			strconv.Itoa(c.Universities),
			strconv.Itoa(c.Departments),
			strconv.Itoa(c.Lists),
			strconv.Itoa(c.PersonsInserted),
			strconv.Itoa(c.PersonsUpdated),
			strconv.Itoa(c.PersonsSkipped),
			strconv.Itoa(c.SkippedBranches),
			c.Duration.Round(time.Second).String(),
			status(c),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{
			"Method", "Year", "Schools", "Departments", "Lists",
			"Inserted", "Updated", "Skipped", "Skipped branches", "Duration", "Status",
		},
		Rows: rows,
	})
	md.PlainText("")

	totals := report.Totals()
	if totals.PersonsInserted+totals.PersonsUpdated+totals.PersonsSkipped == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Persons"),
		piechart.WithShowData(true),
	)
	if totals.PersonsInserted > 0 {
		chart.LabelAndIntValue("Inserted", uint64(totals.PersonsInserted))
	}
	if totals.PersonsUpdated > 0 {
		chart.LabelAndIntValue("Updated", uint64(totals.PersonsUpdated))
	}
	if totals.PersonsSkipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(totals.PersonsSkipped))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Errors) == 0 {
		return
	}
	md.H2("Failures")
	md.PlainText("")

	items := make([]string, 0, len(report.Errors))
	for _, e := range report.Errors {
		items = append(items, "`"+e.Step+"`: "+e.Message)
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeAvailable(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Available) == 0 {
		return
	}
	md.H2("Available Years")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Available))
	for _, a := range report.Available {
		rows = append(rows, []string{a.Label, string(a.Method), strings.Join(a.Years, ", ")})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Method", "Identifier", "Years"},
		Rows:   rows,
	})
	md.PlainText("")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}
