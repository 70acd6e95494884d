package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/a11yscan/internal/model"
)

const (
	consoleWidth = 80

	// maxNodesShown limits the affected elements listed per violation.
	maxNodesShown = 3

	// maxHTMLRunes limits each element snippet in the console.
	maxHTMLRunes = 100
)

// ConsoleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII rules rather than ANSI colors
// so the report stays readable when piped to files or CI logs.
type ConsoleWriter struct {
	baseWriter

	// verbose forces the detailed violation block even when nothing failed.
	verbose bool

	title cases.Caser
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithVerbose shows the detailed violation block even for clean pages.
func WithVerbose(verbose bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.verbose = verbose
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *ConsoleWriter) Write(result *model.ScanResult) (int, error) {
	if result == nil {
		return 0, ErrNilResult
	}
	summary := model.Summarize(result)

	var sb strings.Builder

	w.writeHeader(&sb)
	w.writeSummary(&sb, summary)

	if w.verbose || summary.HasViolations() {
		w.writeViolations(&sb, result.Violations)
	} else {
		sb.WriteString("No accessibility violations found!\n\n")
	}

	w.writeFooter(&sb, result)
	w.writeVerdict(&sb, summary)

	return io.WriteString(w.output, sb.String())
}

func (w *ConsoleWriter) writeHeader(sb *strings.Builder) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", consoleWidth))
	sb.WriteString("\n")
	sb.WriteString("  WEB ACCESSIBILITY CHECKER - SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", consoleWidth))
	sb.WriteString("\n\n")
}

func (w *ConsoleWriter) writeSummary(sb *strings.Builder, summary model.ScanSummary) {
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", consoleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "URL: %s\n", summary.URL)
	fmt.Fprintf(sb, "Scanned at: %s\n", model.HumanTimestamp(summary.Timestamp))
	fmt.Fprintf(sb, "Total Issues: %d\n", summary.TotalViolations)
	sb.WriteString("\n")

	if summary.HasViolations() {
		sb.WriteString("Issues by Severity:\n")
		for _, impact := range model.Impacts {
			count := summary.Count(impact)
			if count == 0 {
				continue
			}
			fmt.Fprintf(sb, "  * %-9s %d\n", w.title.String(string(impact))+":", count)
		}
	}
	sb.WriteString("\n")
}

func (w *ConsoleWriter) writeViolations(sb *strings.Builder, violations []model.Violation) {
	if len(violations) == 0 {
		sb.WriteString("No accessibility violations found!\n\n")
		return
	}

	sb.WriteString("DETAILED VIOLATIONS\n")
	sb.WriteString(strings.Repeat("-", consoleWidth))
	sb.WriteString("\n\n")

	for i, v := range violations {
		fmt.Fprintf(sb, "%d. [%s] %s\n", i+1, v.Impact.Label(), v.ID)
		fmt.Fprintf(sb, "   Description: %s\n", v.Description)
		fmt.Fprintf(sb, "   Help: %s\n", v.Help)
		fmt.Fprintf(sb, "   Learn more: %s\n", v.HelpURL)
		fmt.Fprintf(sb, "   WCAG Tags: %s\n", strings.Join(v.WCAGTags(), ", "))
		fmt.Fprintf(sb, "   Affected elements: %d instance(s)\n", len(v.Nodes))

		for j, node := range v.Nodes {
			if j == maxNodesShown {
				break
			}
			fmt.Fprintf(sb, "      [%d] %s\n", j+1, strings.Join(node.Target, " > "))
			fmt.Fprintf(sb, "       %s\n", truncateString(node.HTML, maxHTMLRunes, true))
		}
		if rest := len(v.Nodes) - maxNodesShown; rest > 0 {
			fmt.Fprintf(sb, "   ... and %d more instance(s)\n", rest)
		}
		sb.WriteString("\n")
	}
}

func (w *ConsoleWriter) writeFooter(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString(strings.Repeat("-", consoleWidth))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Tests passed: %d | Incomplete: %d | Not applicable: %d\n",
		result.Passes, result.Incomplete, result.Inapplicable)
	sb.WriteString(strings.Repeat("=", consoleWidth))
	sb.WriteString("\n\n")
}

func (w *ConsoleWriter) writeVerdict(sb *strings.Builder, summary model.ScanSummary) {
	if summary.HasViolations() {
		fmt.Fprintf(sb, "Found %d accessibility issue(s). Review and fix before deployment.\n", summary.TotalViolations)
	} else {
		sb.WriteString("Great job! No accessibility violations detected.\n")
	}
	sb.WriteString("\n")
}
