package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFiles(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		jsonPath := filepath.Join(dir, "a", "b", "report.json")
		result := createTestResult()

		if err := SaveJSON(result, jsonPath); err != nil {
			t.Fatalf("SaveJSON: %v", err)
		}
		if err := SaveCSV(result, CSVPath(jsonPath)); err != nil {
			t.Fatalf("SaveCSV: %v", err)
		}
		if err := SaveMarkdown(result, MarkdownPath(jsonPath)); err != nil {
			t.Fatalf("SaveMarkdown: %v", err)
		}

		for _, p := range []string{jsonPath, CSVPath(jsonPath), MarkdownPath(jsonPath)} {
			info, err := os.Stat(p)
			if err != nil {
				t.Errorf("expected %s to exist: %v", p, err)
				continue
			}
			if info.Size() == 0 {
				t.Errorf("expected %s to be non-empty", p)
			}
		}
	})

	t.Run("unwritable path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		err := SaveJSON(createTestResult(), filepath.Join(blocker, "report.json"))
		var fwErr *FileWriteError
		if !errors.As(err, &fwErr) {
			t.Fatalf("expected FileWriteError, got %v", err)
		}
		if fwErr.Path != filepath.Join(blocker, "report.json") {
			t.Errorf("unexpected path %q", fwErr.Path)
		}
	})

	t.Run("nil result", func(t *testing.T) {
		t.Parallel()

		err := SaveCSV(nil, filepath.Join(t.TempDir(), "r.csv"))
		if !errors.Is(err, ErrNilResult) {
			t.Errorf("expected ErrNilResult, got %v", err)
		}
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		var fwErr *FileWriteError
		if err := SaveJSON(createTestResult(), ""); !errors.As(err, &fwErr) {
			t.Errorf("expected FileWriteError, got %v", err)
		}
	})
}
