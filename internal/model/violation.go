package model

import (
	"strings"
	"time"
)

// WCAGLevel is a WCAG conformance level used to select which rules run.
type WCAGLevel string

const (
	// WCAGLevelA is the minimum conformance level.
	WCAGLevelA WCAGLevel = "A"

	// WCAGLevelAA is the level most legislation references. It is the default.
	WCAGLevelAA WCAGLevel = "AA"

	// WCAGLevelAAA is the strictest conformance level.
	WCAGLevelAAA WCAGLevel = "AAA"
)

// DefaultWCAGLevel is applied when no valid level was requested.
const DefaultWCAGLevel = WCAGLevelAA

// DefaultTimeout bounds each navigation attempt when no timeout is given.
const DefaultTimeout = 30000 * time.Millisecond

// Tag returns the rule tag selecting this level, e.g. AA -> "wcag2aa".
func (l WCAGLevel) Tag() string {
	return "wcag2" + strings.ToLower(string(l))
}

// Valid reports whether the level is A, AA or AAA.
func (l WCAGLevel) Valid() bool {
	switch l {
	case WCAGLevelA, WCAGLevelAA, WCAGLevelAAA:
		return true
	default:
		return false
	}
}

// ToolOptions holds the options of a single scan request.
// It is built once per invocation by the driver and passed by value to the scanner.
type ToolOptions struct {
	// URL is the page to audit. It must be non-empty.
	URL string

	// Timeout bounds each navigation attempt.
	Timeout time.Duration

	// WCAGLevels selects the rules to evaluate. An empty set means AA.
	WCAGLevels []WCAGLevel

	// OutputPath is the optional JSON report path. The screenshot path is derived from it.
	OutputPath string

	// Verbose forces the detailed violation block in console output.
	Verbose bool

	// Screenshot requests a full-page PNG next to OutputPath.
	Screenshot bool

	// Headers are extra HTTP headers sent with every page request (e.g. Cookie).
	Headers map[string]string
}

// EffectiveTimeout returns Timeout, or DefaultTimeout when it is not positive.
func (o ToolOptions) EffectiveTimeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// EffectiveLevels returns the valid requested levels in order without duplicates,
// falling back to AA when nothing valid remains.
func (o ToolOptions) EffectiveLevels() []WCAGLevel {
	seen := make(map[WCAGLevel]bool, len(o.WCAGLevels))
	levels := make([]WCAGLevel, 0, len(o.WCAGLevels))
	for _, l := range o.WCAGLevels {
		if !l.Valid() || seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, l)
	}
	if len(levels) == 0 {
		return []WCAGLevel{DefaultWCAGLevel}
	}
	return levels
}

// Tags returns the rule tag filter for the effective levels.
func (o ToolOptions) Tags() []string {
	levels := o.EffectiveLevels()
	tags := make([]string, len(levels))
	for i, l := range levels {
		tags[i] = l.Tag()
	}
	return tags
}

// ViolationNode is one DOM element failing a rule.
type ViolationNode struct {
	// HTML is the outer HTML snippet of the element.
	HTML string

	// Target is the selector path to the element, one segment per frame or shadow root.
	Target []string

	// FailureSummary explains how to fix the element. Empty means absent.
	FailureSummary string
}

// Violation is a rule that failed on at least one element.
// Nodes is never empty; the rule engine does not report rules without failing elements.
type Violation struct {
	ID          string
	Impact      Impact
	Description string
	Help        string
	HelpURL     string
	Tags        []string
	Nodes       []ViolationNode
}

// WCAGTags returns the subset of Tags that start with "wcag".
func (v Violation) WCAGTags() []string {
	tags := make([]string, 0, len(v.Tags))
	for _, t := range v.Tags {
		if strings.HasPrefix(t, "wcag") {
			tags = append(tags, t)
		}
	}
	return tags
}

// PageInfo is metadata read from the rendered page.
type PageInfo struct {
	Title string
	Lang  string
}

// ScanResult is the outcome of one scan. It is created once by the scanner
// and is read-only afterwards.
type ScanResult struct {
	// URL is the scanned page.
	URL string

	// Timestamp is when the result was assembled.
	Timestamp time.Time

	// Violations in the order the rule engine reported them.
	Violations []Violation

	// Passes, Incomplete and Inapplicable count rule checks, not elements.
	Passes       int
	Incomplete   int
	Inapplicable int

	// Page holds best-effort metadata about the rendered document.
	Page PageInfo

	// ToolOptions are the options that produced this result.
	ToolOptions ToolOptions
}

// isoLayout matches the millisecond-precision UTC form used by JavaScript's toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z"

// ISOTimestamp returns Timestamp as an ISO-8601 UTC string with millisecond precision.
func (r *ScanResult) ISOTimestamp() string {
	return FormatTimestamp(r.Timestamp)
}

// FormatTimestamp formats t the way reports persist scan timestamps.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// ParseTimestamp parses a timestamp written by FormatTimestamp or any RFC 3339 value.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// HumanTimestamp returns the timestamp in local time for display.
func HumanTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05 MST")
}
