package report

import (
	"encoding/json"
	"io"

	"github.com/comtw/admscrape/internal/model"
)

// JSONWriter outputs the run report as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport adds the computed totals to the serialized run.
type jsonReport struct {
	*model.RunReport
	Totals model.CrawlStats `json:"totals"`
}

// Write encodes the report followed by a newline.
func (w *JSONWriter) Write(report *model.RunReport) error {
	enc := json.NewEncoder(w.output)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	return enc.Encode(jsonReport{RunReport: report, Totals: report.Totals()})
}
