// Package scanner orchestrates a single accessibility scan.
//
// A scan launches (or reuses) a headless browser, opens an isolated page,
// loads the target URL, runs the accessibility rule engine restricted to the
// requested WCAG levels and normalizes the engine output into model types.
//
// Design decision: the browser and the rule engine are injected through the
// narrow Launcher, Browser, Page and Engine interfaces. The chromedp-backed
// implementations live in the browser and axe packages; tests drive the
// scanner with in-memory fakes and never start Chrome.
//
// # Navigation
//
// Navigation first waits for network idle. If that fails for any reason the
// scanner retries exactly once waiting for DOMContentLoaded with the same
// timeout. When both attempts fail a *NavigationError carries both causes.
//
// # Usage
//
//	s := scanner.New(browser.NewLauncher(), axe.NewEngine(loader))
//	defer s.Close()
//	result, err := s.Scan(ctx, model.ToolOptions{URL: "https://example.com"})
package scanner
