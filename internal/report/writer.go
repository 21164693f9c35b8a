// Package report renders aggregate run reports for the hosts that consume
// them: JSON for HTTP responses and files, a text summary for the CLI, and
// an email message for notification hooks.
package report

import (
	"io"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

// Writer defines the interface for report writers.
type Writer interface {
	// WriteReport writes one aggregate report
	WriteReport(report *runner.Report) error

	// Close closes the writer
	Close() error
}

// Config holds output configuration.
type Config struct {
	Format string
	Pretty bool
}

// NewWriter creates a writer for the configured format.
func NewWriter(w io.Writer, config Config) Writer {
	switch config.Format {
	case "text":
		return NewTextWriter(w)
	default:
		return NewJSONWriter(w, config.Pretty)
	}
}
