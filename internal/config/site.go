package config

import (
	"maps"
	"os"
	"strings"

	"github.com/nao1215/a11yscan/internal/storage"
)

// SiteConfig holds configuration for the pages of a single host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, e.g. to scan pages behind a login.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request of the page.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Timeout overrides the navigation timeout in milliseconds.
	Timeout int `yaml:"timeout,omitempty"`

	// WCAG overrides the conformance levels, e.g. "A,AA".
	WCAG string `yaml:"wcag,omitempty"`
}

// RequestHeaders returns Headers with Cookie folded in.
// It returns nil when the site sends nothing extra.
func (s SiteConfig) RequestHeaders() map[string]string {
	if len(s.Headers) == 0 && s.Cookie == "" {
		return nil
	}
	headers := make(map[string]string, len(s.Headers)+1)
	maps.Copy(headers, s.Headers)
	if s.Cookie != "" {
		headers["Cookie"] = s.Cookie
	}
	return headers
}

// UploadConfig configures report upload to S3-compatible storage.
// Keys may reference environment variables as ${NAME}.
type UploadConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"accessKey,omitempty"`
	SecretKey string `yaml:"secretKey,omitempty"`
	UseSSL    bool   `yaml:"useSSL,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
}

// StorageConfig converts the section into storage settings, expanding
// environment variables in the credentials.
func (u UploadConfig) StorageConfig() storage.Config {
	return storage.Config{
		Endpoint:  u.Endpoint,
		Region:    u.Region,
		Bucket:    u.Bucket,
		AccessKey: os.ExpandEnv(u.AccessKey),
		SecretKey: os.ExpandEnv(u.SecretKey),
		UseSSL:    u.UseSSL,
	}
}

// KeyPrefix returns the object key prefix, defaulting to DefaultUploadPrefix.
func (u UploadConfig) KeyPrefix() string {
	if u.Prefix == "" {
		return DefaultUploadPrefix
	}
	return strings.Trim(u.Prefix, "/")
}

// AxeConfig selects the rule engine script.
type AxeConfig struct {
	ScriptPath string `yaml:"scriptPath,omitempty"`
	Version    string `yaml:"version,omitempty"`
}

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	ExecPath  string `yaml:"execPath,omitempty"`
	NoSandbox bool   `yaml:"noSandbox,omitempty"`
}

// HistoryConfig configures the scan history database.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
}

// File represents the structure of the .a11yscan configuration file.
type File struct {
	// Sites maps host names (e.g. "example.com") to their configuration.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults applies to all sites unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	Upload  UploadConfig  `yaml:"upload,omitempty"`
	Axe     AxeConfig     `yaml:"axe,omitempty"`
	Browser BrowserConfig `yaml:"browser,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
}

// NewFile returns an empty configuration file.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// GetSiteConfig returns the configuration for a host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = maps.Clone(cf.Defaults.Headers)
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		siteConfig, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Timeout != 0 {
		result.Timeout = siteConfig.Timeout
	}
	if siteConfig.WCAG != "" {
		result.WCAG = siteConfig.WCAG
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}

	return result
}
