// Package report renders scan results.
//
// This package contains writers for different output formats:
//   - ConsoleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - CSVWriter: One row per violation type for spreadsheets
//   - MarkdownWriter: A document for pull requests and issue trackers
//
// Every writer derives its figures from model.Summarize, so the totals in the
// console, the JSON summary and the CSV rows always agree.
//
// The path helpers (DefaultOutputPath, CSVPath, MarkdownPath, ScreenshotPath)
// are pure functions of their arguments. The Save functions create parent
// directories and report failures as *FileWriteError.
package report
