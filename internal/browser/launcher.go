package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/a11yscan/internal/scanner"
)

// Launcher starts headless Chrome through the DevTools protocol.
type Launcher struct {
	execPath  string
	noSandbox bool
	logger    *slog.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithExecPath uses the Chrome binary at path instead of searching PATH.
func WithExecPath(path string) Option {
	return func(l *Launcher) {
		l.execPath = path
	}
}

// WithNoSandbox disables the Chrome sandbox. Containers running as root need it.
func WithNoSandbox(noSandbox bool) Option {
	return func(l *Launcher) {
		l.noSandbox = noSandbox
	}
}

// WithLogger sets the logger receiving DevTools protocol errors.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// NewLauncher creates a Launcher. Chrome is not started until Launch.
func NewLauncher(opts ...Option) *Launcher {
	l := &Launcher{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var _ scanner.Launcher = (*Launcher)(nil)

// allocatorOptions returns the Chrome command line for a scan session.
func (l *Launcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.WindowSize(scanner.ViewportWidth, scanner.ViewportHeight),
		chromedp.UserAgent(scanner.UserAgent),
	)
	if l.execPath != "" {
		opts = append(opts, chromedp.ExecPath(l.execPath))
	}
	if l.noSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return opts
}

// Launch starts Chrome and waits until the first tab is ready.
// The browser is detached from ctx once started; ctx only bounds startup.
func (l *Launcher) Launch(ctx context.Context) (scanner.Browser, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			l.logger.Debug("devtools: " + fmt.Sprintf(format, args...))
		}),
	)

	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	l.logger.Debug("chrome started", slog.String("exec_path", l.execPath))

	return &Browser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		logger:      l.logger,
	}, nil
}

// Browser is a running Chrome process.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ scanner.Browser = (*Browser)(nil)

// Close shuts Chrome down and removes its temporary profile.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	return b.closeErr
}
