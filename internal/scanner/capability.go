package scanner

import (
	"context"
	"encoding/json"
	"time"
)

// Viewport and user agent applied to every page the scanner opens.
const (
	ViewportWidth  = 1920
	ViewportHeight = 1080
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// WaitCondition is the page lifecycle milestone a navigation waits for.
type WaitCondition string

const (
	// WaitNetworkIdle waits until the network has been quiet for a short period.
	WaitNetworkIdle WaitCondition = "networkidle"

	// WaitDOMContentLoaded waits until the initial document has been parsed.
	WaitDOMContentLoaded WaitCondition = "domcontentloaded"
)

// PageOptions configures an isolated page.
type PageOptions struct {
	Width     int
	Height    int
	UserAgent string
	Headers   map[string]string
}

// Launcher starts a browser session.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser is a running browser session that can open isolated pages.
type Browser interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

// Page is a single isolated browsing context.
type Page interface {
	// Navigate loads url and waits for the given condition, bounded by timeout.
	Navigate(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error

	// Evaluate runs script in the page and decodes its (awaited) result into out.
	Evaluate(ctx context.Context, script string, out any) error

	// Screenshot captures the full scrollable page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// OuterHTML returns the serialized document element.
	OuterHTML(ctx context.Context) (string, error)

	Close() error
}

// Engine evaluates accessibility rules restricted to tags against a loaded page.
type Engine interface {
	Analyze(ctx context.Context, page Page, tags []string) (*RawResults, error)
}

// RawResults is the rule engine output before normalization.
type RawResults struct {
	Violations   []RawViolation `json:"violations"`
	Passes       int            `json:"passes"`
	Incomplete   int            `json:"incomplete"`
	Inapplicable int            `json:"inapplicable"`
}

// RawViolation is one failed rule as reported by the engine.
type RawViolation struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []RawNode `json:"nodes"`
}

// RawNode is one failing element. Target is kept raw because the engine
// reports it as a string, a list of selectors, or nested lists for shadow DOM.
type RawNode struct {
	HTML           string          `json:"html"`
	Target         json.RawMessage `json:"target"`
	FailureSummary string          `json:"failureSummary"`
}
