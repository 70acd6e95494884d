package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/a11yscan/internal/model"
)

// Default configuration values.
const (
	// DefaultTimeout bounds each navigation attempt. Pages that keep
	// long-polling connections open never reach network idle, so the
	// fallback strategy needs a budget of its own within this value.
	DefaultTimeout = model.DefaultTimeout

	// DefaultWCAG is the conformance level flag value when none is given.
	DefaultWCAG = "AA"

	// DefaultReportDir is the base directory of generated report paths.
	// Reports land in <DefaultReportDir>/reports/.
	DefaultReportDir = "."

	// DefaultUploadPrefix is the object key prefix of uploaded reports.
	DefaultUploadPrefix = "a11yscan"

	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"
)

// Config holds all configuration options for a11yscan.
// It is populated from CLI flags and the configuration file, then turned into
// one model.ToolOptions per target.
//
// Design decision: We keep a single flat struct like the flag set it mirrors.
// Per-site overrides live in SiteConfigs and are merged in ToolOptions, so the
// rest of the program never has to know where a value came from.
type Config struct {
	// Targets is the list of pages to scan.
	Targets []string

	// Timeout bounds each navigation attempt.
	Timeout time.Duration

	// TimeoutSet records that Timeout was given on the command line.
	// An explicit flag wins over the configuration file.
	TimeoutSet bool

	// WCAGLevels are the conformance levels to evaluate.
	WCAGLevels []model.WCAGLevel

	// WCAGSet records that WCAGLevels was given on the command line.
	WCAGSet bool

	// OutputPath is the JSON report path. When empty and JSON output is
	// enabled, a path under ReportDir is generated per target.
	OutputPath string

	// ReportDir is the base directory of generated report paths.
	ReportDir string

	// NoJSON disables the JSON report. The screenshot needs a JSON path to
	// derive its own path from, so it is skipped as well.
	NoJSON bool

	// CSV writes a CSV report next to the JSON report.
	CSV bool

	// Markdown writes a Markdown report next to the JSON report.
	Markdown bool

	// Screenshot captures a full-page PNG next to the JSON report.
	Screenshot bool

	// Verbose forces the detailed violation list and enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .a11yscan is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file.
	SiteConfigs *File

	// SaveToDB stores every scan in the history database.
	SaveToDB bool

	// DBDir is the directory of the history database.
	DBDir string

	// Upload copies produced files to object storage.
	Upload bool

	// AxeScriptPath is a local axe-core script used instead of the download.
	AxeScriptPath string

	// AxeVersion is the axe-core version to download.
	AxeVersion string

	// ChromePath is the Chrome or Chromium executable. Empty means auto-detect.
	ChromePath string

	// NoSandbox disables the Chrome sandbox, needed in some containers.
	NoSandbox bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because several defaults are non-zero (timeout, conformance
// level, history). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		WCAGLevels:  []model.WCAGLevel{model.DefaultWCAGLevel},
		ReportDir:   DefaultReportDir,
		SaveToDB:    true,
		DBDir:       XDGDataDir(),
		SiteConfigs: NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for a11yscan.
// The scan history database lives here.
// On Linux: ~/.local/share/a11yscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yscan.
// On Linux: ~/.config/a11yscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for a11yscan.
// Downloaded axe-core scripts are cached here.
// On Linux: ~/.cache/a11yscan
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
//
// Design decision: We validate once after flag parsing, before a browser is
// launched, so that usage errors never cost a browser start.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, t := range c.Targets {
		if t == "" {
			return ErrEmptyTarget
		}
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// A fixed output path would be overwritten by every target.
	if c.OutputPath != "" && len(c.Targets) > 1 {
		return ErrOutputWithMultipleTargets
	}

	if c.Upload {
		if c.SiteConfigs == nil {
			return ErrUploadNotConfigured
		}
		if err := c.SiteConfigs.Upload.StorageConfig().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrUploadNotConfigured, err)
		}
	}

	if c.SaveToDB && c.DBDir == "" {
		return ErrNoDBDir
	}

	return nil
}

// ApplyFile fills unset tool settings from the configuration file.
// Flags that were given explicitly keep their values.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	c.SiteConfigs = f

	if c.AxeScriptPath == "" {
		c.AxeScriptPath = f.Axe.ScriptPath
	}
	if c.AxeVersion == "" {
		c.AxeVersion = f.Axe.Version
	}
	if c.ChromePath == "" {
		c.ChromePath = f.Browser.ExecPath
	}
	if !c.NoSandbox {
		c.NoSandbox = f.Browser.NoSandbox
	}
	if f.History.Disabled {
		c.SaveToDB = false
	}
	if f.History.Dir != "" {
		c.DBDir = f.History.Dir
	}
}

// ToolOptions builds the scan options for one normalized target URL.
// The site entry matching the target host is merged over the defaults
// section of the configuration file. Explicit flags win over both.
func (c *Config) ToolOptions(target string) model.ToolOptions {
	var site SiteConfig
	if c.SiteConfigs != nil {
		site = c.SiteConfigs.GetSiteConfig(HostKey(target))
	}

	opts := model.ToolOptions{
		URL:        target,
		Timeout:    c.Timeout,
		WCAGLevels: c.WCAGLevels,
		OutputPath: c.OutputPath,
		Verbose:    c.Verbose,
		Screenshot: c.Screenshot,
		Headers:    site.RequestHeaders(),
	}

	if !c.TimeoutSet && site.Timeout > 0 {
		opts.Timeout = time.Duration(site.Timeout) * time.Millisecond
	}
	if !c.WCAGSet && site.WCAG != "" {
		opts.WCAGLevels = ParseWCAGLevels(site.WCAG)
	}

	return opts
}
