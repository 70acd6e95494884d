package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/a11yscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output with two-space indentation.
	// When false, output is compact (no extra whitespace).
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report document for result.
func (w *JSONWriter) Write(result *model.ScanResult) (int, error) {
	if result == nil {
		return 0, ErrNilResult
	}
	return w.writeJSON(NewDocument(result))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	data = append(data, '\n')

	return w.output.Write(data)
}

// Document is the persisted JSON report. Field names are a stable contract
// shared with the CSV report and the scan history.
type Document struct {
	Metadata    Metadata      `json:"metadata"`
	Summary     Summary       `json:"summary"`
	Violations  []JSONFinding `json:"violations"`
	TestDetails TestDetails   `json:"testDetails"`
}

// Metadata identifies the scanned page and when it was scanned.
type Metadata struct {
	URL string `json:"url"`

	// Timestamp is ISO-8601 UTC with millisecond precision.
	Timestamp string `json:"timestamp"`

	// ScannedAt is the same instant in local time for humans.
	ScannedAt string `json:"scannedAt"`
}

// Summary holds the aggregate figures. Severity counts are in affected elements.
type Summary struct {
	TotalViolations int `json:"totalViolations"`
	ViolationTypes  int `json:"violationTypes"`
	Critical        int `json:"critical"`
	Serious         int `json:"serious"`
	Moderate        int `json:"moderate"`
	Minor           int `json:"minor"`
	Passes          int `json:"passes"`
	Incomplete      int `json:"incomplete"`
	Inapplicable    int `json:"inapplicable"`
}

// JSONFinding is one violation type with its failing elements.
type JSONFinding struct {
	ID               string     `json:"id"`
	Impact           string     `json:"impact"`
	Description      string     `json:"description"`
	Help             string     `json:"help"`
	HelpURL          string     `json:"helpUrl"`
	Tags             []string   `json:"tags"`
	AffectedElements int        `json:"affectedElements"`
	Nodes            []JSONNode `json:"nodes"`
}

// JSONNode is one failing element.
type JSONNode struct {
	Target         []string `json:"target"`
	HTML           string   `json:"html"`
	FailureSummary string   `json:"failureSummary,omitempty"`
}

// TestDetails repeats the rule-check counts.
type TestDetails struct {
	Passes       int `json:"passes"`
	Incomplete   int `json:"incomplete"`
	Inapplicable int `json:"inapplicable"`
}

// NewDocument builds the JSON report document for result.
func NewDocument(result *model.ScanResult) *Document {
	summary := model.Summarize(result)

	doc := &Document{
		Metadata: Metadata{
			URL:       result.URL,
			Timestamp: result.ISOTimestamp(),
			ScannedAt: model.HumanTimestamp(result.Timestamp),
		},
		Summary: Summary{
			TotalViolations: summary.TotalViolations,
			ViolationTypes:  model.ViolationTypes(result),
			Critical:        summary.Critical,
			Serious:         summary.Serious,
			Moderate:        summary.Moderate,
			Minor:           summary.Minor,
			Passes:          result.Passes,
			Incomplete:      result.Incomplete,
			Inapplicable:    result.Inapplicable,
		},
		Violations: make([]JSONFinding, 0, len(result.Violations)),
		TestDetails: TestDetails{
			Passes:       result.Passes,
			Incomplete:   result.Incomplete,
			Inapplicable: result.Inapplicable,
		},
	}

	for _, v := range result.Violations {
		nodes := make([]JSONNode, 0, len(v.Nodes))
		for _, n := range v.Nodes {
			nodes = append(nodes, JSONNode{
				Target:         n.Target,
				HTML:           n.HTML,
				FailureSummary: n.FailureSummary,
			})
		}
		tags := v.Tags
		if tags == nil {
			tags = []string{}
		}
		doc.Violations = append(doc.Violations, JSONFinding{
			ID:               v.ID,
			Impact:           string(v.Impact),
			Description:      v.Description,
			Help:             v.Help,
			HelpURL:          v.HelpURL,
			Tags:             tags,
			AffectedElements: len(v.Nodes),
			Nodes:            nodes,
		})
	}

	return doc
}

// Result rebuilds a ScanResult from a stored document. Tool options are not
// part of the document and stay zero, except the URL.
func (d *Document) Result() (*model.ScanResult, error) {
	ts, err := model.ParseTimestamp(d.Metadata.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid report timestamp %q: %w", d.Metadata.Timestamp, err)
	}

	result := &model.ScanResult{
		URL:          d.Metadata.URL,
		Timestamp:    ts,
		Violations:   make([]model.Violation, 0, len(d.Violations)),
		Passes:       d.Summary.Passes,
		Incomplete:   d.Summary.Incomplete,
		Inapplicable: d.Summary.Inapplicable,
		ToolOptions:  model.ToolOptions{URL: d.Metadata.URL},
	}
	for _, f := range d.Violations {
		nodes := make([]model.ViolationNode, 0, len(f.Nodes))
		for _, n := range f.Nodes {
			nodes = append(nodes, model.ViolationNode{
				HTML:           n.HTML,
				Target:         n.Target,
				FailureSummary: n.FailureSummary,
			})
		}
		result.Violations = append(result.Violations, model.Violation{
			ID:          f.ID,
			Impact:      model.Impact(f.Impact),
			Description: f.Description,
			Help:        f.Help,
			HelpURL:     f.HelpURL,
			Tags:        f.Tags,
			Nodes:       nodes,
		})
	}
	return result, nil
}

// ParseJSON decodes a JSON report document.
func ParseJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &doc, nil
}
