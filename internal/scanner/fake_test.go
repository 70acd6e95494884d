package scanner

import (
	"context"
	"errors"
	"time"
)

type navigateCall struct {
	url     string
	wait    WaitCondition
	timeout time.Duration
}

type fakePage struct {
	navigateErrs map[WaitCondition]error
	navigations  []navigateCall
	screenshot   []byte
	shotErr      error
	html         string
	blockHTML    bool
	closeErr     error
	closed       int
}

func (p *fakePage) Navigate(_ context.Context, url string, wait WaitCondition, timeout time.Duration) error {
	p.navigations = append(p.navigations, navigateCall{url: url, wait: wait, timeout: timeout})
	return p.navigateErrs[wait]
}

func (p *fakePage) Evaluate(context.Context, string, any) error {
	return errors.New("not implemented")
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	return p.screenshot, p.shotErr
}

func (p *fakePage) OuterHTML(ctx context.Context) (string, error) {
	if p.blockHTML {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if p.html == "" {
		return "", errors.New("no document")
	}
	return p.html, nil
}

func (p *fakePage) Close() error {
	p.closed++
	return p.closeErr
}

type fakeBrowser struct {
	pages    []*fakePage
	newPage  func() *fakePage
	opened   []PageOptions
	pageErr  error
	closeErr error
	closed   int
}

func (b *fakeBrowser) NewPage(_ context.Context, opts PageOptions) (Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	b.opened = append(b.opened, opts)
	p := &fakePage{}
	if b.newPage != nil {
		p = b.newPage()
	}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) Close() error {
	b.closed++
	return b.closeErr
}

type fakeLauncher struct {
	browser  *fakeBrowser
	err      error
	launches int
}

func (l *fakeLauncher) Launch(context.Context) (Browser, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

type fakeEngine struct {
	results *RawResults
	err     error
	tags    [][]string
}

func (e *fakeEngine) Analyze(_ context.Context, _ Page, tags []string) (*RawResults, error) {
	e.tags = append(e.tags, tags)
	return e.results, e.err
}
