package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/model"
)

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("header and rows", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if lines[0] != "ID,Impact,Description,Help,Help URL,Affected Elements" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], `"image-alt","critical",`) || !strings.HasSuffix(lines[1], ",2") {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if !strings.Contains(lines[2], `"Ensures the ""contrast"" is sufficient"`) {
			t.Errorf("expected doubled quotes, got %q", lines[2])
		}
	})

	t.Run("row count ignores node count", func(t *testing.T) {
		t.Parallel()

		result := &model.ScanResult{Violations: []model.Violation{
			{ID: "a", Impact: model.ImpactMinor, Nodes: makeNodes(7)},
			{ID: "b", Impact: model.ImpactMinor, Nodes: makeNodes(1)},
			{ID: "c", Impact: model.ImpactModerate, Nodes: makeNodes(3)},
		}}

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid csv: %v", err)
		}
		if len(records) != 4 {
			t.Errorf("expected 4 records, got %d", len(records))
		}
	})

	t.Run("empty result has header only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(&model.ScanResult{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != "ID,Impact,Description,Help,Help URL,Affected Elements\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("newlines inside fields stay quoted", func(t *testing.T) {
		t.Parallel()

		result := &model.ScanResult{Violations: []model.Violation{
			{ID: "x", Impact: model.ImpactMinor, Description: "line one\nline two", Nodes: makeNodes(1)},
		}}

		var buf bytes.Buffer
		if _, err := NewCSVWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid csv: %v", err)
		}
		if records[1][2] != "line one\nline two" {
			t.Errorf("unexpected description %q", records[1][2])
		}
	})
}
