package report

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/comtw/admscrape/internal/model"
)

// Writer renders a run report.
type Writer interface {
	Write(report *model.RunReport) error
}

// Format selects a report format.
type Format string

const (
	// FormatMarkdown is a Markdown document for sharing.
	FormatMarkdown Format = "markdown"

	// FormatJSON is indented JSON for tooling.
	FormatJSON Format = "json"

	// FormatText is a terminal table.
	FormatText Format = "text"
)

// FormatForPath picks the format from a file extension. Anything other than
// .json or .txt is written as Markdown.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".txt":
		return FormatText
	default:
		return FormatMarkdown
	}
}

// NewWriter returns the writer for format.
func NewWriter(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatText:
		return NewTableWriter(output)
	default:
		return NewMarkdownWriter(output)
	}
}

// MultiWriter writes the same report with several writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write stops at the first failing writer.
func (m *MultiWriter) Write(report *model.RunReport) error {
	for _, w := range m.writers {
		if err := w.Write(report); err != nil {
			return err
		}
	}
	return nil
}

// baseWriter holds the output shared by all writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// status summarises a crawl outcome in one word.
func status(c *model.CrawlStats) string {
	if c.Failed() {
		return "failed"
	}
	return "ok"
}
