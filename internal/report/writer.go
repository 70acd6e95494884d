package report

import (
	"io"

	"github.com/nao1215/a11yscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations write scan results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. The CLI writes the console report to stdout and the
// file reports through the Save functions with the same writers.
type Writer interface {
	// Write outputs the report for result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.ScanResult) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString shortens s to at most maxLen runes, marking the cut with "...".
// The console reporter passes appendEllipsis so the kept prefix is maxLen runes
// long; table cells keep the whole result within maxLen.
func truncateString(s string, maxLen int, appendEllipsis bool) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if appendEllipsis {
		return string(runes[:maxLen]) + "..."
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
