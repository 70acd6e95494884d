package scanner

import (
	"errors"
	"fmt"
)

// ErrEmptyURL is returned when a scan is requested without a target URL.
var ErrEmptyURL = errors.New("empty url: a page address is required")

// ErrNoResults is wrapped in a ScanEngineError when the rule engine returned nothing.
var ErrNoResults = errors.New("rule engine returned no results")

// NavigationError is returned when both the network-idle attempt and the
// DOMContentLoaded fallback failed to load the page.
type NavigationError struct {
	// URL is the page that could not be loaded.
	URL string

	// Primary is the failure of the network-idle attempt.
	Primary error

	// Err is the failure of the DOMContentLoaded fallback.
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigate to %s: %v (fallback: %v)", e.URL, e.Primary, e.Err)
}

// Unwrap returns both attempt failures so errors.Is matches either of them.
func (e *NavigationError) Unwrap() []error {
	return []error{e.Primary, e.Err}
}

// ScanEngineError is returned when the rule engine failed or produced output
// that could not be normalized.
type ScanEngineError struct {
	URL string
	Err error
}

func (e *ScanEngineError) Error() string {
	return fmt.Sprintf("accessibility analysis of %s failed: %v", e.URL, e.Err)
}

func (e *ScanEngineError) Unwrap() error {
	return e.Err
}

// SessionError is returned when the browser could not be launched or a page
// could not be opened.
type SessionError struct {
	// Op is "launch" or "open page".
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session: %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// ScreenshotError is returned when the full-page screenshot could not be
// captured or written.
type ScreenshotError struct {
	Path string
	Err  error
}

func (e *ScreenshotError) Error() string {
	return fmt.Sprintf("screenshot %s: %v", e.Path, e.Err)
}

func (e *ScreenshotError) Unwrap() error {
	return e.Err
}
