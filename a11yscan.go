// Package a11yscan checks web pages for accessibility problems.
//
// A scan loads one page in headless Chrome, runs the axe-core rules for the
// requested WCAG conformance levels and returns every failing element grouped
// by rule:
//
//	result, err := a11yscan.Scan(ctx, "https://example.com",
//		a11yscan.WithWCAGLevels(a11yscan.WCAGLevelAA),
//		a11yscan.WithTimeout(20*time.Second),
//	)
//	if err != nil {
//		return err
//	}
//	summary := a11yscan.Summarize(result)
//	fmt.Println(summary.Critical, "critical elements")
//
// Scan starts and stops a browser per call. Use NewScanner to keep one
// browser for many pages, or ScanAll for a list of URLs.
package a11yscan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/a11yscan/internal/axe"
	"github.com/nao1215/a11yscan/internal/browser"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/scanner"
)

// Result and option types shared with the internal packages.
type (
	ScanResult    = model.ScanResult
	ScanSummary   = model.ScanSummary
	Violation     = model.Violation
	ViolationNode = model.ViolationNode
	Impact        = model.Impact
	WCAGLevel     = model.WCAGLevel
	ToolOptions   = model.ToolOptions
	Outcome       = model.Outcome
	Scanner       = scanner.Scanner
)

// WCAG conformance levels.
const (
	WCAGLevelA   = model.WCAGLevelA
	WCAGLevelAA  = model.WCAGLevelAA
	WCAGLevelAAA = model.WCAGLevelAAA
)

// Violation impacts, from least to most severe.
const (
	ImpactMinor    = model.ImpactMinor
	ImpactModerate = model.ImpactModerate
	ImpactSerious  = model.ImpactSerious
	ImpactCritical = model.ImpactCritical
)

// Summarize counts the failing elements of result per impact.
func Summarize(result *ScanResult) ScanSummary {
	return model.Summarize(result)
}

// OutcomeOf maps result to the exit signal the CLI uses (0 clean, 1 issues, 2 critical).
func OutcomeOf(result *ScanResult) Outcome {
	return model.OutcomeOf(result)
}

// settings collects the Option values of one call.
type settings struct {
	tool model.ToolOptions

	logger     *slog.Logger
	chromePath string
	noSandbox  bool

	axeScriptPath string
	axeVersion    string
	axeCacheDir   string

	launcher scanner.Launcher
	engine   scanner.Engine
}

// Option configures Scan, ScanAndReport, ScanAll and NewScanner.
type Option func(*settings)

// WithTimeout bounds each navigation attempt. The default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.tool.Timeout = d
	}
}

// WithWCAGLevels selects the conformance levels to evaluate. The default is AA.
func WithWCAGLevels(levels ...WCAGLevel) Option {
	return func(s *settings) {
		s.tool.WCAGLevels = levels
	}
}

// WithOutputPath writes the JSON report to path. A screenshot requested with
// WithScreenshot is written next to it.
func WithOutputPath(path string) Option {
	return func(s *settings) {
		s.tool.OutputPath = path
	}
}

// WithScreenshot captures a full-page PNG next to the output path.
func WithScreenshot(enabled bool) Option {
	return func(s *settings) {
		s.tool.Screenshot = enabled
	}
}

// WithVerbose prints the detailed violation list even when the page is clean.
func WithVerbose(verbose bool) Option {
	return func(s *settings) {
		s.tool.Verbose = verbose
	}
}

// WithHeaders sends extra HTTP headers, such as Cookie, with every page request.
func WithHeaders(headers map[string]string) Option {
	return func(s *settings) {
		s.tool.Headers = headers
	}
}

// WithLogger sets the logger of every component. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithChromePath uses the Chrome or Chromium binary at path.
func WithChromePath(path string) Option {
	return func(s *settings) {
		s.chromePath = path
	}
}

// WithNoSandbox disables the Chrome sandbox.
func WithNoSandbox(noSandbox bool) Option {
	return func(s *settings) {
		s.noSandbox = noSandbox
	}
}

// WithAxeScript reads axe-core from a local file instead of downloading it.
func WithAxeScript(path string) Option {
	return func(s *settings) {
		s.axeScriptPath = path
	}
}

// WithAxeVersion selects the axe-core release to download.
func WithAxeVersion(version string) Option {
	return func(s *settings) {
		s.axeVersion = version
	}
}

// WithAxeCacheDir caches downloaded axe-core scripts in dir.
// The default is the a11yscan XDG cache directory.
func WithAxeCacheDir(dir string) Option {
	return func(s *settings) {
		s.axeCacheDir = dir
	}
}

// WithLauncher replaces the headless Chrome launcher.
func WithLauncher(launcher scanner.Launcher) Option {
	return func(s *settings) {
		s.launcher = launcher
	}
}

// WithEngine replaces the axe-core rule engine.
func WithEngine(engine scanner.Engine) Option {
	return func(s *settings) {
		s.engine = engine
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:      slog.Default(),
		axeCacheDir: config.XDGCacheDir(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// toolOptions returns the scan options for target.
func (s *settings) toolOptions(target string) (model.ToolOptions, error) {
	url, err := config.NormalizeURL(target)
	if err != nil {
		return model.ToolOptions{}, err
	}
	opts := s.tool
	opts.URL = url
	if opts.Timeout <= 0 {
		opts.Timeout = model.DefaultTimeout
	}
	opts.WCAGLevels = opts.EffectiveLevels()
	return opts, nil
}

func (s *settings) newScanner() *scanner.Scanner {
	launcher := s.launcher
	if launcher == nil {
		launcher = browser.NewLauncher(
			browser.WithExecPath(s.chromePath),
			browser.WithNoSandbox(s.noSandbox),
			browser.WithLogger(s.logger),
		)
	}

	engine := s.engine
	if engine == nil {
		loader := axe.NewScriptLoader(
			axe.WithScriptPath(s.axeScriptPath),
			axe.WithVersion(s.axeVersion),
			axe.WithCacheDir(s.axeCacheDir),
			axe.WithLoaderLogger(s.logger),
		)
		engine = axe.NewEngine(loader, axe.WithLogger(s.logger))
	}

	return scanner.New(launcher, engine, scanner.WithLogger(s.logger))
}

// NewScanner creates a Scanner that keeps one browser session across scans.
// Scan options such as WithTimeout do not apply; pass them per call in
// ToolOptions. The caller must Close the scanner.
func NewScanner(opts ...Option) *Scanner {
	return newSettings(opts).newScanner()
}

// Scan audits the page at url. A missing scheme defaults to https://.
// The browser is started for this call and closed before Scan returns.
func Scan(ctx context.Context, url string, opts ...Option) (result *ScanResult, err error) {
	s := newSettings(opts)
	toolOpts, err := s.toolOptions(url)
	if err != nil {
		return nil, err
	}

	sc := s.newScanner()
	defer func() {
		err = errors.Join(err, sc.Close())
	}()

	return sc.Scan(ctx, toolOpts)
}

// ScanAndReport scans url, prints the console report to w and saves the JSON
// report when WithOutputPath is given.
func ScanAndReport(ctx context.Context, url string, w io.Writer, opts ...Option) (*ScanResult, error) {
	s := newSettings(opts)

	result, err := Scan(ctx, url, opts...)
	if err != nil {
		return nil, err
	}

	p := pipeline.NewOutputPipeline(pipeline.OutputConfig{
		Console:  w,
		Verbose:  s.tool.Verbose,
		JSONPath: s.tool.OutputPath,
	}, pipeline.WithLogger(s.logger))
	if err := p.Execute(ctx, pipeline.NewRun(result)); err != nil {
		return result, err
	}
	return result, nil
}

// ScanAll scans urls one after another with a single browser session.
// It stops at the first failure and returns the results gathered so far
// together with the error.
func ScanAll(ctx context.Context, urls []string, opts ...Option) (results []*ScanResult, err error) {
	s := newSettings(opts)

	targets := make([]model.ToolOptions, 0, len(urls))
	for _, u := range urls {
		toolOpts, err := s.toolOptions(u)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", u, err)
		}
		targets = append(targets, toolOpts)
	}

	sc := s.newScanner()
	defer func() {
		err = errors.Join(err, sc.Close())
	}()

	results = make([]*ScanResult, 0, len(targets))
	for _, t := range targets {
		result, err := sc.Scan(ctx, t)
		if err != nil {
			return results, fmt.Errorf("scan of %s failed: %w", t.URL, err)
		}
		results = append(results, result)
	}
	return results, nil
}
