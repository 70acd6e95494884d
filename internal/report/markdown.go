package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/a11yscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for pull request comments and issue trackers.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, details blocks and mermaid charts
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	if result == nil {
		return 0, ErrNilResult
	}

	summary := model.Summarize(result)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result, summary)
	w.writeSummary(md, result, summary)
	w.writeViolations(md, result.Violations)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.ScanResult, summary model.ScanSummary) {
	md.H1("Accessibility Report")
	md.PlainText("")

	rows := [][]string{
		{"URL", "`" + result.URL + "`"},
		{"Scanned At", model.HumanTimestamp(result.Timestamp)},
	}
	if result.Page.Title != "" {
		rows = append(rows, []string{"Page Title", result.Page.Title})
	}
	if result.Page.Lang != "" {
		rows = append(rows, []string{"Language", result.Page.Lang})
	}
	rows = append(rows, []string{"Status", w.statusText(summary)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusText(summary model.ScanSummary) string {
	switch {
	case summary.Critical > 0:
		return "❌ Critical issues"
	case summary.HasViolations():
		return "⚠️ Issues found"
	default:
		return "✅ No violations"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.ScanResult, summary model.ScanSummary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Affected Elements"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(summary.Critical)},
			{"🟠 Serious", strconv.Itoa(summary.Serious)},
			{"🟡 Moderate", strconv.Itoa(summary.Moderate)},
			{"🔵 Minor", strconv.Itoa(summary.Minor)},
			{"**Total**", "**" + strconv.Itoa(summary.TotalViolations) + "**"},
		},
	})
	md.PlainText("")
	md.PlainTextf("Rules passed: %d, incomplete: %d, not applicable: %d.", result.Passes, result.Incomplete, result.Inapplicable)
	md.PlainText("")

	if summary.BucketTotal() > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of affected elements per severity.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary model.ScanSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Affected Elements by Severity"),
		piechart.WithShowData(true),
	)

	for _, impact := range model.Impacts {
		if count := summary.Count(impact); count > 0 {
			chart.LabelAndIntValue(w.title.String(string(impact)), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary model.ScanSummary) {
	switch {
	case summary.Critical > 0:
		md.Cautionf(
			"%d element(s) fail critical rules and block some users entirely.",
			summary.Critical,
		)
	case summary.Serious > 0:
		md.Warningf(
			"%d element(s) fail serious rules. Review and fix before deployment.",
			summary.Serious,
		)
	case summary.HasViolations():
		md.Note("Only moderate and minor violations detected.")
	default:
		md.Tip("No accessibility violations detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeViolations(md *markdown.Markdown, violations []model.Violation) {
	md.H2("Violations")
	md.PlainText("")

	if len(violations) == 0 {
		md.PlainText("No accessibility violations found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(violations))
	for i, v := range violations {
		rows[i] = []string{
			"`" + v.ID + "`",
			v.Impact.Label(),
			truncateString(v.Help, 60, false),
			strconv.Itoa(len(v.Nodes)),
			strings.Join(v.WCAGTags(), ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Impact", "Help", "Elements", "WCAG"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, v := range violations {
		md.Details(v.ID+": "+v.Help, w.violationDetails(v))
	}
	md.PlainText("")
}

// violationDetails renders the body of a collapsible block. Details takes
// plain text, so the body is assembled here.
func (w *MarkdownWriter) violationDetails(v model.Violation) string {
	var sb strings.Builder
	sb.WriteString(v.Description)
	sb.WriteString("\n\n")
	sb.WriteString("Learn more: " + v.HelpURL + "\n\n")
	for i, n := range v.Nodes {
		sb.WriteString(strconv.Itoa(i+1) + ". `" + strings.Join(n.Target, " > ") + "`\n")
		if n.FailureSummary != "" {
			sb.WriteString("   " + strings.ReplaceAll(n.FailureSummary, "\n", " ") + "\n")
		}
	}
	return sb.String()
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [a11yscan](https://github.com/nao1215/a11yscan) with axe-core*")
}
