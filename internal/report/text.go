package report

import (
	"fmt"
	"io"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

// TextWriter renders a human-readable summary, one run per call.
type TextWriter struct {
	writer io.Writer
}

// NewTextWriter creates a new text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{writer: w}
}

// WriteReport writes a stdout-friendly summary of one run.
func (t *TextWriter) WriteReport(report *runner.Report) error {
	status := "OK"
	if !report.Success {
		status = "FAILED"
	}

	if _, err := fmt.Fprintf(t.writer, "%s  mode=%s  total=%d  successful=%d  failed=%d\n",
		status, report.Mode, report.Total, report.Successful, report.Failed); err != nil {
		return err
	}

	for _, r := range report.Results {
		if _, err := fmt.Fprintf(t.writer, "  ok   [%s] %s -> %d\n", r.Method, r.Endpoint, r.StatusCode); err != nil {
			return err
		}
	}
	for _, e := range report.Errors {
		if _, err := fmt.Fprintf(t.writer, "  fail [%s] %s: %s\n", e.Method, e.Endpoint, e.Error); err != nil {
			return err
		}
	}

	return nil
}

// Close is a no-op for text output.
func (t *TextWriter) Close() error {
	return nil
}
