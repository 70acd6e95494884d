// Package model defines the data structures shared by the scanner, the
// reporters and the CLI.
//
// This package contains the following main types:
//   - ToolOptions: the options of one scan request
//   - Violation and ViolationNode: a failed rule and its failing elements
//   - ScanResult: the normalized outcome of one scan
//   - ScanSummary: severity counts derived from a ScanResult
//   - ScanDiff: new and resolved elements between two scans of a page
//
// Design decision: the aggregation functions (Summarize, OutcomeOf, Diff) live
// next to the types rather than in the report package. The console, JSON, CSV
// and Markdown writers, the exit code and the history comparison all need the
// same figures, and computing them in one place keeps every output consistent.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
