package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/a11yscan/internal/scanner"
)

// NewPage opens a tab in a fresh browser context, so cookies and storage
// never leak between scans.
func (b *Browser) NewPage(ctx context.Context, opts scanner.PageOptions) (scanner.Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())

	p := &Page{ctx: tabCtx, cancel: cancel}

	runCtx, release := p.bind(ctx)
	defer release()

	if err := chromedp.Run(runCtx, setupActions(opts)...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to prepare page: %w", err)
	}
	return p, nil
}

// setupActions applies the viewport, user agent and extra headers.
func setupActions(opts scanner.PageOptions) []chromedp.Action {
	actions := []chromedp.Action{
		network.Enable(),
		emulation.SetDeviceMetricsOverride(int64(opts.Width), int64(opts.Height), 1, false),
	}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	if headers := extraHeaders(opts.Headers); headers != nil {
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	return actions
}

func extraHeaders(h map[string]string) network.Headers {
	if len(h) == 0 {
		return nil
	}
	headers := make(network.Headers, len(h))
	for k, v := range h {
		headers[k] = v
	}
	return headers
}

// Page is one Chrome tab.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

var _ scanner.Page = (*Page)(nil)

// bind derives a tab context that is also cancelled when ctx is done.
func (p *Page) bind(ctx context.Context) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(p.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// lifecycleEvent maps a wait condition to the Page.lifecycleEvent name Chrome emits.
func lifecycleEvent(wait scanner.WaitCondition) string {
	switch wait {
	case scanner.WaitDOMContentLoaded:
		return "DOMContentLoaded"
	default:
		return "networkIdle"
	}
}

// Navigate loads url and blocks until the main frame emits the lifecycle
// event for wait, or timeout elapses.
func (p *Page) Navigate(ctx context.Context, url string, wait scanner.WaitCondition, timeout time.Duration) error {
	runCtx, release := p.bind(ctx)
	defer release()
	navCtx, cancel := context.WithTimeout(runCtx, timeout)
	defer cancel()

	name := lifecycleEvent(wait)
	events := make(chan *page.EventLifecycleEvent, 32)
	chromedp.ListenTarget(navCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == name {
			select {
			case events <- e:
			default:
			}
		}
	})

	var res page.NavigateReturns
	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res)
		}),
	)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if res.ErrorText != "" {
		return fmt.Errorf("navigate: %s", res.ErrorText)
	}
	// Same-document navigations have no loader and emit no lifecycle events.
	if res.LoaderID == "" {
		return nil
	}

	for {
		select {
		case e := <-events:
			if e.FrameID == res.FrameID && e.LoaderID == res.LoaderID {
				return nil
			}
		case <-navCtx.Done():
			return fmt.Errorf("waiting for %s: %w", name, navCtx.Err())
		}
	}
}

// Evaluate runs script, awaiting a returned promise, and decodes the value into out.
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	runCtx, release := p.bind(ctx)
	defer release()

	return chromedp.Run(runCtx, chromedp.Evaluate(script, out, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}))
}

// Screenshot captures the full scrollable page as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, release := p.bind(ctx)
	defer release()

	var buf []byte
	// Quality 100 selects PNG encoding.
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, err
	}
	return buf, nil
}

// outerHTMLScript serializes the document element without waiting for a
// node, so documents without <html> (SVG, XML) answer with their root.
const outerHTMLScript = `document.documentElement ? document.documentElement.outerHTML : ""`

// OuterHTML returns the serialized document element.
func (p *Page) OuterHTML(ctx context.Context) (string, error) {
	runCtx, release := p.bind(ctx)
	defer release()

	var html string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(outerHTMLScript, &html)); err != nil {
		return "", err
	}
	return html, nil
}

// Close closes the tab and disposes of its browser context.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = chromedp.Cancel(p.ctx)
		p.cancel()
	})
	return p.closeErr
}
