package axe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nao1215/a11yscan/internal/scanner"
)

// Loader provides the axe-core source.
type Loader interface {
	Load(ctx context.Context) (string, error)
}

// Engine runs axe-core inside a scanner page.
type Engine struct {
	loader Loader
	logger *slog.Logger

	mu     sync.Mutex
	source string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine. The script is loaded on first use and kept.
func NewEngine(loader Loader, opts ...EngineOption) *Engine {
	e := &Engine{
		loader: loader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ scanner.Engine = (*Engine)(nil)

// Analyze injects axe-core into page and runs the rules tagged with any of tags.
func (e *Engine) Analyze(ctx context.Context, page scanner.Page, tags []string) (*scanner.RawResults, error) {
	source, err := e.script(ctx)
	if err != nil {
		return nil, err
	}

	var injected bool
	if err := page.Evaluate(ctx, injectScript(source), &injected); err != nil {
		return nil, fmt.Errorf("failed to inject axe-core: %w", err)
	}
	if !injected {
		return nil, ErrNotInjected
	}

	script, err := runScript(tags)
	if err != nil {
		return nil, err
	}

	var results scanner.RawResults
	if err := page.Evaluate(ctx, script, &results); err != nil {
		return nil, fmt.Errorf("axe.run failed: %w", err)
	}

	e.logger.DebugContext(ctx, "axe-core finished",
		slog.Int("violations", len(results.Violations)),
		slog.Int("passes", results.Passes))

	return &results, nil
}

func (e *Engine) script(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source != "" {
		return e.source, nil
	}
	source, err := e.loader.Load(ctx)
	if err != nil {
		return "", err
	}
	e.source = source
	return source, nil
}

// injectScript evaluates the library at global scope and reports whether
// the axe global exists afterwards.
func injectScript(source string) string {
	return source + "\n;typeof window.axe === 'object' && typeof window.axe.run === 'function';"
}

// runScriptTemplate reduces the axe result to what the scanner keeps. Full
// result objects for passes and inapplicable rules are large and only their
// counts are reported.
const runScriptTemplate = `(async () => {
  const r = await window.axe.run(document, {
    runOnly: { type: 'tag', values: %s },
    resultTypes: ['violations']
  });
  return {
    violations: r.violations.map(v => ({
      id: v.id,
      impact: v.impact,
      description: v.description,
      help: v.help,
      helpUrl: v.helpUrl,
      tags: v.tags,
      nodes: v.nodes.map(n => ({
        html: n.html,
        target: n.target,
        failureSummary: n.failureSummary
      }))
    })),
    passes: r.passes.length,
    incomplete: r.incomplete.length,
    inapplicable: r.inapplicable.length
  };
})()`

// runScript builds the axe.run invocation for tags.
func runScript(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	values, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return fmt.Sprintf(runScriptTemplate, values), nil
}
