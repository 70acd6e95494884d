package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
)

// Scanner runs accessibility scans against single pages.
//
// A Scanner owns at most one browser session and one page at a time. The
// browser is launched on the first Scan and reused by later calls; every Scan
// opens a fresh page and closes the one left by the previous call.
// A Scanner is not safe for concurrent use.
type Scanner struct {
	launcher Launcher
	engine   Engine
	logger   *slog.Logger
	now      func() time.Time

	browser Browser
	page    Page
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for scan progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithClock sets the function used to timestamp results.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a Scanner that launches browsers with launcher and evaluates
// rules with engine. Nothing is started until the first Scan.
func New(launcher Launcher, engine Engine, opts ...Option) *Scanner {
	s := &Scanner{
		launcher: launcher,
		engine:   engine,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan loads opts.URL in an isolated page, evaluates the rules selected by
// opts.WCAGLevels and returns the normalized result.
//
// The browser session stays open after Scan returns, including on failure.
// Callers release it with Close.
func (s *Scanner) Scan(ctx context.Context, opts model.ToolOptions) (*model.ScanResult, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, ErrEmptyURL
	}

	page, err := s.openPage(ctx, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to prepare browser page", slog.String("url", opts.URL), slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.navigate(ctx, page, opts); err != nil {
		s.logger.ErrorContext(ctx, "failed to load page", slog.String("url", opts.URL), slog.String("error", err.Error()))
		return nil, err
	}

	tags := opts.Tags()
	s.logger.DebugContext(ctx, "running accessibility rules", slog.String("url", opts.URL), slog.Any("tags", tags))

	raw, err := s.engine.Analyze(ctx, page, tags)
	if err == nil && raw == nil {
		err = ErrNoResults
	}
	if err != nil {
		engineErr := &ScanEngineError{URL: opts.URL, Err: err}
		s.logger.ErrorContext(ctx, "accessibility analysis failed", slog.String("url", opts.URL), slog.String("error", err.Error()))
		return nil, engineErr
	}

	if opts.Screenshot && opts.OutputPath != "" {
		if err := s.screenshot(ctx, page, report.ScreenshotPath(opts.OutputPath)); err != nil {
			s.logger.ErrorContext(ctx, "failed to capture screenshot", slog.String("error", err.Error()))
			return nil, err
		}
	}

	violations, err := normalizeViolations(raw.Violations)
	if err != nil {
		s.logger.ErrorContext(ctx, "unexpected rule engine output", slog.String("url", opts.URL), slog.String("error", err.Error()))
		return nil, &ScanEngineError{URL: opts.URL, Err: err}
	}

	result := &model.ScanResult{
		URL:          opts.URL,
		Violations:   violations,
		Passes:       raw.Passes,
		Incomplete:   raw.Incomplete,
		Inapplicable: raw.Inapplicable,
		Page:         readPageInfo(ctx, s.logger, page, opts.EffectiveTimeout()),
		ToolOptions:  opts,
		Timestamp:    s.now(),
	}

	s.logger.InfoContext(ctx, "scan completed",
		slog.String("url", result.URL),
		slog.Int("violation_types", len(result.Violations)),
		slog.Int("passes", result.Passes))

	return result, nil
}

// openPage launches the browser if needed and replaces any previous page.
func (s *Scanner) openPage(ctx context.Context, opts model.ToolOptions) (Page, error) {
	if s.browser == nil {
		s.logger.DebugContext(ctx, "launching browser")
		browser, err := s.launcher.Launch(ctx)
		if err != nil {
			return nil, &SessionError{Op: "launch", Err: err}
		}
		s.browser = browser
	}

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.WarnContext(ctx, "failed to close previous page", slog.String("error", err.Error()))
		}
		s.page = nil
	}

	page, err := s.browser.NewPage(ctx, PageOptions{
		Width:     ViewportWidth,
		Height:    ViewportHeight,
		UserAgent: UserAgent,
		Headers:   opts.Headers,
	})
	if err != nil {
		return nil, &SessionError{Op: "open page", Err: err}
	}
	s.page = page
	return page, nil
}

// navigate waits for network idle first. Pages that keep connections open
// (analytics beacons, long polling) never go idle, so one retry waits only
// for DOMContentLoaded with the same budget.
func (s *Scanner) navigate(ctx context.Context, page Page, opts model.ToolOptions) error {
	timeout := opts.EffectiveTimeout()

	primary := page.Navigate(ctx, opts.URL, WaitNetworkIdle, timeout)
	if primary == nil {
		return nil
	}

	s.logger.WarnContext(ctx, "network idle wait failed, retrying with DOMContentLoaded",
		slog.String("url", opts.URL),
		slog.String("error", primary.Error()))

	fallback := page.Navigate(ctx, opts.URL, WaitDOMContentLoaded, timeout)
	if fallback == nil {
		return nil
	}
	return &NavigationError{URL: opts.URL, Primary: primary, Err: fallback}
}

func (s *Scanner) screenshot(ctx context.Context, page Page, path string) error {
	data, err := page.Screenshot(ctx)
	if err != nil {
		return &ScreenshotError{Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return &ScreenshotError{Path: path, Err: fmt.Errorf("create directory: %w", err)}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return &ScreenshotError{Path: path, Err: err}
	}
	s.logger.InfoContext(ctx, "screenshot saved", slog.String("path", path))
	return nil
}

// Close releases the page and then the browser. It is safe to call more
// than once; a later Scan launches a new browser.
func (s *Scanner) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	return errors.Join(errs...)
}
