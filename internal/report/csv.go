package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// csvHeader is the first line of every CSV report.
var csvHeader = []string{"ID", "Impact", "Description", "Help", "Help URL", "Affected Elements"}

// CSVWriter outputs one row per violation type.
//
// Design decision: rows are built by hand instead of with encoding/csv.
// The report contract quotes every string field, and csv.Writer only quotes
// fields that need it. The count column stays unquoted.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the header line and one line per violation. Every line,
// including the last, ends with "\n".
func (w *CSVWriter) Write(result *model.ScanResult) (int, error) {
	if result == nil {
		return 0, ErrNilResult
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(csvHeader, ","))
	sb.WriteString("\n")

	for _, v := range result.Violations {
		fields := []string{
			quoteCSV(v.ID),
			quoteCSV(string(v.Impact)),
			quoteCSV(v.Description),
			quoteCSV(v.Help),
			quoteCSV(v.HelpURL),
			strconv.Itoa(len(v.Nodes)),
		}
		sb.WriteString(strings.Join(fields, ","))
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// quoteCSV wraps s in double quotes and doubles embedded quotes.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
