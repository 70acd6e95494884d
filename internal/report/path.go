package report

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// reportsDir is created under the base directory for default report paths.
	reportsDir = "reports"

	maxSanitizedURL = 50
	maxTimestamp    = 19
)

var (
	schemePattern    = regexp.MustCompile(`^https?://`)
	nonAlnumPattern  = regexp.MustCompile(`[^a-zA-Z0-9]`)
	timestampPattern = regexp.MustCompile(`[:.]`)
)

// SanitizeURL turns a URL into a file name fragment: the http(s) scheme is
// dropped, every character outside [a-zA-Z0-9] becomes "_", and the result
// is cut to 50 characters. Applying it twice gives the same result.
func SanitizeURL(url string) string {
	s := schemePattern.ReplaceAllString(url, "")
	s = nonAlnumPattern.ReplaceAllString(s, "_")
	if len(s) > maxSanitizedURL {
		s = s[:maxSanitizedURL]
	}
	return s
}

// fileTimestamp renders ts like "2025-01-02T03-04-05".
func fileTimestamp(ts time.Time) string {
	s := timestampPattern.ReplaceAllString(ts.UTC().Format("2006-01-02T15:04:05.000Z"), "-")
	if len(s) > maxTimestamp {
		s = s[:maxTimestamp]
	}
	return s
}

// DefaultOutputPath returns baseDir/reports/accessibility_<url>_<timestamp>.json.
// The result only depends on its arguments.
func DefaultOutputPath(baseDir, url string, ts time.Time) string {
	name := "accessibility_" + SanitizeURL(url) + "_" + fileTimestamp(ts) + ".json"
	return filepath.Join(baseDir, reportsDir, name)
}

// CSVPath derives the CSV report path from the JSON report path.
func CSVPath(jsonPath string) string {
	return swapExtension(jsonPath, ".csv")
}

// MarkdownPath derives the Markdown report path from the JSON report path.
func MarkdownPath(jsonPath string) string {
	return swapExtension(jsonPath, ".md")
}

// ScreenshotPath derives the screenshot path from the JSON report path.
func ScreenshotPath(jsonPath string) string {
	return swapExtension(jsonPath, ".png")
}

// swapExtension replaces a trailing ".json", any other extension, or
// appends ext when the file name has none.
func swapExtension(path, ext string) string {
	if strings.HasSuffix(path, ".json") {
		return strings.TrimSuffix(path, ".json") + ext
	}
	if old := filepath.Ext(path); old != "" {
		return strings.TrimSuffix(path, old) + ext
	}
	return path + ext
}
