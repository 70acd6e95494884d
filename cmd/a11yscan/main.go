// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan audits a single web page for accessibility problems. It loads the
// page in headless Chrome, runs the axe-core rules for the requested WCAG
// conformance levels and reports every failing element.
//
// Usage:
//
//	a11yscan scan <url>
//	a11yscan compare <url>
//
// See --help for all available options.
package main

import "os"

// main is the entry point for a11yscan.
func main() {
	os.Exit(Execute())
}
