package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/a11yscan/internal/model"
)

// SaveJSON writes the pretty-printed JSON report to path, creating parent directories.
func SaveJSON(result *model.ScanResult, path string) error {
	return saveFile(path, func(out io.Writer) error {
		_, err := NewJSONWriter(out, WithPrettyPrint()).Write(result)
		return err
	})
}

// SaveCSV writes the CSV report to path, creating parent directories.
func SaveCSV(result *model.ScanResult, path string) error {
	return saveFile(path, func(out io.Writer) error {
		_, err := NewCSVWriter(out).Write(result)
		return err
	})
}

// SaveMarkdown writes the Markdown report to path, creating parent directories.
func SaveMarkdown(result *model.ScanResult, path string) error {
	return saveFile(path, func(out io.Writer) error {
		_, err := NewMarkdownWriter(out).Write(result)
		return err
	})
}

// saveFile creates path with owner-only permissions and passes it to write.
// Any failure, including the final close, is reported as a *FileWriteError.
func saveFile(path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return &FileWriteError{Path: path, Err: fmt.Errorf("empty path")}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return &FileWriteError{Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &FileWriteError{Path: path, Err: cerr}
		}
	}()

	if err := write(f); err != nil {
		return &FileWriteError{Path: path, Err: err}
	}
	return nil
}
