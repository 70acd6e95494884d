package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/storage"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional; these tests fail if they drift.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default WCAG level is AA", func(t *testing.T) {
		t.Parallel()
		if len(cfg.WCAGLevels) != 1 || cfg.WCAGLevels[0] != model.WCAGLevelAA {
			t.Errorf("expected [AA], got %v", cfg.WCAGLevels)
		}
	})

	t.Run("history is enabled in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("default report dir is the working directory", func(t *testing.T) {
		t.Parallel()
		if cfg.ReportDir != "." {
			t.Errorf("expected ReportDir '.', got %q", cfg.ReportDir)
		}
	})

	t.Run("site configs are initialized", func(t *testing.T) {
		t.Parallel()
		if cfg.SiteConfigs == nil || cfg.SiteConfigs.Sites == nil {
			t.Error("expected empty site configs")
		}
	})
}

// TestConfigValidate tests the Validate method.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"https://example.com"}
		cfg.DBDir = "/tmp/a11yscan"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config returns nil",
			modify: func(*Config) {},
		},
		{
			name:    "no target",
			modify:  func(c *Config) { c.Targets = nil },
			wantErr: ErrNoTarget,
		},
		{
			name:    "empty target",
			modify:  func(c *Config) { c.Targets = []string{""} },
			wantErr: ErrEmptyTarget,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name: "output with multiple targets",
			modify: func(c *Config) {
				c.Targets = []string{"https://a.example", "https://b.example"}
				c.OutputPath = "report.json"
			},
			wantErr: ErrOutputWithMultipleTargets,
		},
		{
			name: "output with no-json keeps the screenshot path",
			modify: func(c *Config) {
				c.OutputPath = "report.json"
				c.NoJSON = true
				c.Screenshot = true
			},
		},
		{
			name:    "upload without section",
			modify:  func(c *Config) { c.Upload = true },
			wantErr: ErrUploadNotConfigured,
		},
		{
			name: "upload with section",
			modify: func(c *Config) {
				c.Upload = true
				c.SiteConfigs.Upload = UploadConfig{Endpoint: "localhost:9000", Bucket: "reports"}
			},
		},
		{
			name: "history without directory",
			modify: func(c *Config) {
				c.DBDir = ""
			},
			wantErr: ErrNoDBDir,
		},
		{
			name: "history disabled without directory",
			modify: func(c *Config) {
				c.DBDir = ""
				c.SaveToDB = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("fills unset values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{
			Axe:     AxeConfig{ScriptPath: "/opt/axe.min.js", Version: "4.9.0"},
			Browser: BrowserConfig{ExecPath: "/usr/bin/chromium", NoSandbox: true},
			History: HistoryConfig{Dir: "/var/lib/a11yscan"},
		})

		if cfg.AxeScriptPath != "/opt/axe.min.js" {
			t.Errorf("expected axe script path from file, got %q", cfg.AxeScriptPath)
		}
		if cfg.AxeVersion != "4.9.0" {
			t.Errorf("expected axe version from file, got %q", cfg.AxeVersion)
		}
		if cfg.ChromePath != "/usr/bin/chromium" {
			t.Errorf("expected chrome path from file, got %q", cfg.ChromePath)
		}
		if !cfg.NoSandbox {
			t.Error("expected NoSandbox from file")
		}
		if cfg.DBDir != "/var/lib/a11yscan" {
			t.Errorf("expected DBDir from file, got %q", cfg.DBDir)
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.AxeScriptPath = "./axe.js"
		cfg.ChromePath = "/flag/chrome"
		cfg.ApplyFile(&File{
			Axe:     AxeConfig{ScriptPath: "/opt/axe.min.js"},
			Browser: BrowserConfig{ExecPath: "/usr/bin/chromium"},
		})

		if cfg.AxeScriptPath != "./axe.js" {
			t.Errorf("expected flag axe script path, got %q", cfg.AxeScriptPath)
		}
		if cfg.ChromePath != "/flag/chrome" {
			t.Errorf("expected flag chrome path, got %q", cfg.ChromePath)
		}
	})

	t.Run("history can be disabled", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{History: HistoryConfig{Disabled: true}})
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
	})

	t.Run("nil file is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.SiteConfigs == nil {
			t.Error("expected site configs to stay set")
		}
	})
}

func TestConfigToolOptions(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Timeout: 10000,
			WCAG:    "A",
		},
		Sites: map[string]SiteConfig{
			"example.com": {
				Cookie:  "session=abc",
				Headers: map[string]string{"X-Test": "1"},
				WCAG:    "AAA",
			},
		},
	}

	t.Run("site entry overrides defaults", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.Screenshot = true
		cfg.OutputPath = "out.json"

		opts := cfg.ToolOptions("https://example.com/page")
		if opts.URL != "https://example.com/page" {
			t.Errorf("expected URL to be kept, got %q", opts.URL)
		}
		if opts.Timeout != 10*time.Second {
			t.Errorf("expected timeout from defaults, got %v", opts.Timeout)
		}
		if len(opts.WCAGLevels) != 1 || opts.WCAGLevels[0] != model.WCAGLevelAAA {
			t.Errorf("expected [AAA] from site, got %v", opts.WCAGLevels)
		}
		if opts.Headers["Cookie"] != "session=abc" {
			t.Errorf("expected cookie header, got %v", opts.Headers)
		}
		if opts.Headers["X-Test"] != "1" {
			t.Errorf("expected X-Test header, got %v", opts.Headers)
		}
		if !opts.Screenshot || opts.OutputPath != "out.json" {
			t.Errorf("expected output options to be kept, got %+v", opts)
		}
	})

	t.Run("explicit flags win over file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.Timeout = 5 * time.Second
		cfg.TimeoutSet = true
		cfg.WCAGLevels = []model.WCAGLevel{model.WCAGLevelAA}
		cfg.WCAGSet = true

		opts := cfg.ToolOptions("https://example.com")
		if opts.Timeout != 5*time.Second {
			t.Errorf("expected flag timeout, got %v", opts.Timeout)
		}
		if opts.WCAGLevels[0] != model.WCAGLevelAA {
			t.Errorf("expected flag level, got %v", opts.WCAGLevels)
		}
	})

	t.Run("unknown host uses defaults only", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file

		opts := cfg.ToolOptions("https://other.example")
		if opts.Headers != nil {
			t.Errorf("expected no headers, got %v", opts.Headers)
		}
		if opts.WCAGLevels[0] != model.WCAGLevelA {
			t.Errorf("expected default level A, got %v", opts.WCAGLevels)
		}
	})
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("merges headers without mutating defaults", func(t *testing.T) {
		t.Parallel()

		f := &File{
			Defaults: SiteConfig{Headers: map[string]string{"Accept-Language": "en"}},
			Sites: map[string]SiteConfig{
				"example.com": {Headers: map[string]string{"Authorization": "Bearer x"}},
			},
		}

		got := f.GetSiteConfig("example.com")
		if len(got.Headers) != 2 {
			t.Errorf("expected 2 merged headers, got %v", got.Headers)
		}
		if len(f.Defaults.Headers) != 1 {
			t.Errorf("expected defaults to stay untouched, got %v", f.Defaults.Headers)
		}
	})

	t.Run("www prefix falls back to bare host", func(t *testing.T) {
		t.Parallel()

		f := &File{Sites: map[string]SiteConfig{"example.com": {Cookie: "a=b"}}}
		if got := f.GetSiteConfig("www.example.com"); got.Cookie != "a=b" {
			t.Errorf("expected cookie from bare host entry, got %q", got.Cookie)
		}
	})

	t.Run("returns defaults for unknown host", func(t *testing.T) {
		t.Parallel()

		f := &File{Defaults: SiteConfig{Timeout: 1234}}
		if got := f.GetSiteConfig("unknown.example"); got.Timeout != 1234 {
			t.Errorf("expected default timeout, got %d", got.Timeout)
		}
	})
}

func TestSiteConfigRequestHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		site SiteConfig
		want map[string]string
	}{
		{name: "empty", site: SiteConfig{}, want: nil},
		{name: "cookie only", site: SiteConfig{Cookie: "a=b"}, want: map[string]string{"Cookie": "a=b"}},
		{
			name: "headers and cookie",
			site: SiteConfig{Cookie: "a=b", Headers: map[string]string{"X-One": "1"}},
			want: map[string]string{"Cookie": "a=b", "X-One": "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.site.RequestHeaders()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("expected %s=%s, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestUploadConfig(t *testing.T) {
	t.Setenv("A11YSCAN_TEST_SECRET", "s3cr3t")

	u := UploadConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "reports",
		AccessKey: "minio",
		SecretKey: "${A11YSCAN_TEST_SECRET}",
		Prefix:    "/nightly/",
	}

	sc := u.StorageConfig()
	if sc.SecretKey != "s3cr3t" {
		t.Errorf("expected expanded secret, got %q", sc.SecretKey)
	}
	if sc.AccessKey != "minio" {
		t.Errorf("expected access key minio, got %q", sc.AccessKey)
	}
	if u.KeyPrefix() != "nightly" {
		t.Errorf("expected prefix nightly, got %q", u.KeyPrefix())
	}
	if (UploadConfig{}).KeyPrefix() != DefaultUploadPrefix {
		t.Errorf("expected default prefix %q", DefaultUploadPrefix)
	}
}

func TestConfigValidateUploadCause(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Targets = []string{"https://example.com"}
	cfg.DBDir = "/tmp/a11yscan"
	cfg.Upload = true
	cfg.SiteConfigs = NewFile()
	cfg.SiteConfigs.Upload = UploadConfig{Endpoint: "localhost:9000", Bucket: "reports", AccessKey: "minio"}

	err := cfg.Validate()
	if !errors.Is(err, ErrUploadNotConfigured) {
		t.Errorf("expected ErrUploadNotConfigured, got %v", err)
	}
	if !errors.Is(err, storage.ErrPartialCredentials) {
		t.Errorf("expected the storage cause to be kept, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.a11yscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  timeout: 45000
  wcag: "A,AA"
sites:
  example.com:
    cookie: "session=xyz"
    headers:
      Authorization: "Bearer token"
upload:
  endpoint: "localhost:9000"
  bucket: "reports"
  useSSL: true
axe:
  version: "4.9.1"
browser:
  noSandbox: true
history:
  disabled: true
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.Timeout != 45000 {
			t.Errorf("expected default timeout 45000, got %d", cfg.Defaults.Timeout)
		}
		if cfg.Defaults.WCAG != "A,AA" {
			t.Errorf("expected default wcag, got %q", cfg.Defaults.WCAG)
		}
		site, ok := cfg.Sites["example.com"]
		if !ok {
			t.Fatal("expected example.com in sites")
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
		if !cfg.Upload.UseSSL || cfg.Upload.Bucket != "reports" {
			t.Errorf("unexpected upload section: %+v", cfg.Upload)
		}
		if cfg.Axe.Version != "4.9.1" {
			t.Errorf("expected axe version, got %q", cfg.Axe.Version)
		}
		if !cfg.Browser.NoSandbox {
			t.Error("expected noSandbox")
		}
		if !cfg.History.Disabled {
			t.Error("expected history disabled")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("defaults:\n  timeout: 1000\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "adds https scheme", input: "example.com", want: "https://example.com"},
		{name: "keeps http scheme", input: "http://example.com/a?b=c", want: "http://example.com/a?b=c"},
		{name: "trims whitespace", input: "  https://example.com/  ", want: "https://example.com/"},
		{name: "lower-cases host", input: "https://Example.COM/Path", want: "https://example.com/Path"},
		{name: "converts IDN host", input: "bücher.example", want: "https://xn--bcher-kva.example"},
		{name: "keeps port", input: "localhost:8080/app", want: "https://localhost:8080/app"},
		{name: "keeps IP host", input: "http://127.0.0.1:3000", want: "http://127.0.0.1:3000"},
		{name: "empty", input: "   ", wantErr: ErrEmptyTarget},
		{name: "unsupported scheme", input: "ftp://example.com", wantErr: ErrInvalidURL},
		{name: "missing host", input: "https://", wantErr: ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHostKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "https://Example.com/a", want: "example.com"},
		{input: "http://localhost:8080", want: "localhost"},
		{input: "not a url", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := HostKey(tt.input); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseWCAGLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []model.WCAGLevel
	}{
		{input: "AA", want: []model.WCAGLevel{model.WCAGLevelAA}},
		{input: "a, aa", want: []model.WCAGLevel{model.WCAGLevelA, model.WCAGLevelAA}},
		{input: "A,B,AAA", want: []model.WCAGLevel{model.WCAGLevelA, model.WCAGLevelAAA}},
		{input: "AA,aa", want: []model.WCAGLevel{model.WCAGLevelAA}},
		{input: "", want: []model.WCAGLevel{model.WCAGLevelAA}},
		{input: "X,Y", want: []model.WCAGLevel{model.WCAGLevelAA}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := ParseWCAGLevels(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if !strings.HasSuffix(dir, AppName) {
				t.Errorf("expected %s dir to end with %q, got %q", name, AppName, dir)
			}
		})
	}
}
