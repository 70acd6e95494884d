package axe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultVersion is the axe-core release used when none is configured.
	DefaultVersion = "4.10.2"

	// DefaultBaseURL serves axe-core releases as <base>/<version>/axe.min.js.
	DefaultBaseURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core"

	// maxScriptSize bounds the download. axe.min.js is about 550 KB.
	maxScriptSize = 8 * 1024 * 1024
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ScriptLoader resolves the axe-core source: an explicit file, then the
// cache directory, then a download that is written back to the cache.
type ScriptLoader struct {
	scriptPath string
	version    string
	baseURL    string
	cacheDir   string
	client     *http.Client
	logger     *slog.Logger
}

// LoaderOption configures a ScriptLoader.
type LoaderOption func(*ScriptLoader)

// WithScriptPath reads axe-core from a local file and never downloads.
func WithScriptPath(path string) LoaderOption {
	return func(l *ScriptLoader) {
		l.scriptPath = path
	}
}

// WithVersion selects the axe-core release to download.
func WithVersion(version string) LoaderOption {
	return func(l *ScriptLoader) {
		if version != "" {
			l.version = version
		}
	}
}

// WithBaseURL overrides the download location.
func WithBaseURL(baseURL string) LoaderOption {
	return func(l *ScriptLoader) {
		if baseURL != "" {
			l.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithCacheDir stores downloaded scripts in dir. An empty dir disables caching.
func WithCacheDir(dir string) LoaderOption {
	return func(l *ScriptLoader) {
		l.cacheDir = dir
	}
}

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *ScriptLoader) {
		l.client = client
	}
}

// WithLoaderLogger sets the logger for cache and download events.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *ScriptLoader) {
		l.logger = logger
	}
}

// NewScriptLoader creates a ScriptLoader for DefaultVersion from DefaultBaseURL.
func NewScriptLoader(opts ...LoaderOption) *ScriptLoader {
	l := &ScriptLoader{
		version: DefaultVersion,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the axe-core source.
func (l *ScriptLoader) Load(ctx context.Context) (string, error) {
	if l.scriptPath != "" {
		data, err := os.ReadFile(filepath.Clean(l.scriptPath))
		if err != nil {
			return "", fmt.Errorf("failed to read axe-core script: %w", err)
		}
		return nonEmpty(data)
	}

	if !versionPattern.MatchString(l.version) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, l.version)
	}

	if cached, err := l.readCache(); err == nil {
		l.logger.DebugContext(ctx, "using cached axe-core", slog.String("path", l.cachePath()))
		return cached, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		l.logger.WarnContext(ctx, "ignoring unreadable axe-core cache", slog.String("error", err.Error()))
	}

	data, err := l.download(ctx)
	if err != nil {
		return "", err
	}
	script, err := nonEmpty(data)
	if err != nil {
		return "", err
	}

	if err := l.writeCache(data); err != nil {
		l.logger.WarnContext(ctx, "failed to cache axe-core", slog.String("error", err.Error()))
	}
	return script, nil
}

// ScriptURL returns the download location for the configured version.
func (l *ScriptLoader) ScriptURL() string {
	return l.baseURL + "/" + l.version + "/axe.min.js"
}

func (l *ScriptLoader) cachePath() string {
	return filepath.Join(l.cacheDir, "axe-"+l.version+".min.js")
}

func (l *ScriptLoader) readCache() (string, error) {
	if l.cacheDir == "" {
		return "", fs.ErrNotExist
	}
	data, err := os.ReadFile(l.cachePath())
	if err != nil {
		return "", err
	}
	return nonEmpty(data)
}

func (l *ScriptLoader) writeCache(data []byte) error {
	if l.cacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.cacheDir, 0750); err != nil {
		return err
	}
	return os.WriteFile(l.cachePath(), data, 0600)
}

func (l *ScriptLoader) download(ctx context.Context) ([]byte, error) {
	url := l.ScriptURL()
	l.logger.InfoContext(ctx, "downloading axe-core", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download axe-core: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download axe-core: %s returned %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read axe-core: %w", err)
	}
	if len(data) > maxScriptSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrScriptTooLarge, url, maxScriptSize)
	}
	return data, nil
}

func nonEmpty(data []byte) (string, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", ErrEmptyScript
	}
	return string(data), nil
}
