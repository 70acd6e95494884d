package report

import (
	"errors"
	"fmt"
)

// FileWriteError is returned when a report file could not be written.
type FileWriteError struct {
	// Path is the file that could not be written.
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return e.Err
}

// ErrNilResult is returned when a writer is asked to render a nil result.
var ErrNilResult = errors.New("nil scan result")
