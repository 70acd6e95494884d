package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan"
	"github.com/nao1215/a11yscan/internal/axe"
	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/log"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/nao1215/a11yscan/internal/storage"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Scan web pages for accessibility violations",
		Long: `Scan loads each page in headless Chrome and evaluates the axe-core rules
for the requested WCAG conformance levels.

Every scan prints a console report and, unless --no-json is given, writes a
JSON report to reports/accessibility_<host>_<time>.json. Scans are also
recorded in the history database used by 'a11yscan compare'.

URLs without a scheme are scanned over https.

Examples:
  # Scan a page for WCAG AA violations
  a11yscan scan https://example.com

  # Check all conformance levels and write a CSV summary
  a11yscan scan -w A,AA,AAA -c example.com

  # Write the report to a fixed path together with a screenshot
  a11yscan scan -o out/home.json -s https://example.com

  # Scan several pages in a row
  a11yscan scan example.com example.com/contact example.com/about

Configuration file (.a11yscan) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      wcag: "A,AA"`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().IntP("timeout", "t", int(config.DefaultTimeout/time.Millisecond),
		"Navigation timeout in milliseconds")
	cmd.Flags().StringP("wcag", "w", config.DefaultWCAG,
		"WCAG levels to check, comma-separated (A, AA, AAA)")

	// Report flags
	cmd.Flags().StringP("output", "o", "",
		"Write the JSON report to this path (default: reports/accessibility_<host>_<time>.json)")
	cmd.Flags().String("report-dir", config.DefaultReportDir,
		"Base directory of generated report paths")
	cmd.Flags().Bool("no-json", false,
		"Do not write the JSON, CSV or Markdown reports (a screenshot still needs --output)")
	cmd.Flags().BoolP("csv", "c", false,
		"Write a CSV summary next to the JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report next to the JSON report")
	cmd.Flags().BoolP("screenshot", "s", false,
		"Capture a full-page screenshot next to the JSON report")

	// Configuration file
	cmd.Flags().String("config", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// History and upload
	cmd.Flags().Bool("no-history", false,
		"Do not record the scan in the history database")
	cmd.Flags().Bool("upload", false,
		"Upload reports to the object storage configured in the configuration file")

	// Engine and browser
	cmd.Flags().String("axe-script", "",
		"Use a local axe-core script instead of downloading it")
	cmd.Flags().String("axe-version", "",
		"axe-core version to download (default: "+axe.DefaultVersion+")")
	cmd.Flags().String("chrome-path", "",
		"Chrome or Chromium executable (default: auto-detect)")
	cmd.Flags().Bool("no-sandbox", false,
		"Disable the Chrome sandbox (needed when running as root in some containers)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	deps, cleanup := openOutputs(ctx, cfg, logger)
	defer cleanup()

	sc := a11yscan.NewScanner(
		a11yscan.WithLogger(logger),
		a11yscan.WithChromePath(cfg.ChromePath),
		a11yscan.WithNoSandbox(cfg.NoSandbox),
		a11yscan.WithAxeScript(cfg.AxeScriptPath),
		a11yscan.WithAxeVersion(cfg.AxeVersion),
	)

	outcome, err := runScan(ctx, cmd.OutOrStdout(), cfg, sc, deps, logger)
	if err != nil {
		return &exitError{outcome: model.OutcomeError, err: err}
	}
	if outcome != model.OutcomeClean {
		return &exitError{outcome: outcome}
	}
	return nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getLogJSONFlag retrieves the log-json flag from the command or its parent.
func getLogJSONFlag(cmd *cobra.Command) bool {
	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		logJSON, err = cmd.Root().PersistentFlags().GetBool("log-json")
		if err != nil {
			return false
		}
	}
	return logJSON
}

// buildConfig creates a Config from cobra command flags and the configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	timeoutMs, err := flags.GetInt("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutMs) * time.Millisecond
	cfg.TimeoutSet = flags.Changed("timeout")

	wcag, err := flags.GetString("wcag")
	if err != nil {
		return nil, err
	}
	cfg.WCAGLevels = config.ParseWCAGLevels(wcag)
	cfg.WCAGSet = flags.Changed("wcag")

	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ReportDir, err = flags.GetString("report-dir"); err != nil {
		return nil, err
	}
	if cfg.NoJSON, err = flags.GetBool("no-json"); err != nil {
		return nil, err
	}
	if cfg.CSV, err = flags.GetBool("csv"); err != nil {
		return nil, err
	}
	if cfg.Markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.Screenshot, err = flags.GetBool("screenshot"); err != nil {
		return nil, err
	}
	if cfg.Upload, err = flags.GetBool("upload"); err != nil {
		return nil, err
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if cfg.AxeScriptPath, err = flags.GetString("axe-script"); err != nil {
		return nil, err
	}
	if cfg.AxeVersion, err = flags.GetString("axe-version"); err != nil {
		return nil, err
	}
	if cfg.ChromePath, err = flags.GetString("chrome-path"); err != nil {
		return nil, err
	}
	if cfg.NoSandbox, err = flags.GetBool("no-sandbox"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise silently fall back to an empty configuration.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
	case explicitConfigPath:
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if noHistory {
		cfg.SaveToDB = false
	}

	cfg.Targets = make([]string, 0, len(args))
	for _, arg := range args {
		target, err := config.NormalizeURL(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", arg, err)
		}
		cfg.Targets = append(cfg.Targets, target)
	}

	return cfg, nil
}

// setupLogger creates a secure structured logger on stderr.
// Warnings and errors are shown by default; verbose mode adds debug output.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if getLogJSONFlag(cmd) {
		return log.NewSecureJSONLogger(os.Stderr, verbose)
	}
	return log.NewSecureLogger(os.Stderr, verbose)
}

// outputDeps are the optional destinations of every scan result.
type outputDeps struct {
	history      pipeline.HistoryStore
	uploader     pipeline.Uploader
	uploadPrefix string
}

// openOutputs opens the history database and the object store selected by cfg.
// Both are optional: failures are logged and the scan continues without them.
func openOutputs(ctx context.Context, cfg *config.Config, logger *slog.Logger) (outputDeps, func()) {
	var deps outputDeps
	cleanup := func() {}

	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("scan history disabled", slog.String("dir", cfg.DBDir), slog.String("error", err.Error()))
		} else {
			deps.history = db
			cleanup = func() {
				if err := db.Close(); err != nil {
					logger.Warn("failed to close history database", slog.String("error", err.Error()))
				}
			}
		}
	}

	if cfg.Upload && cfg.SiteConfigs != nil {
		up := cfg.SiteConfigs.Upload
		store, err := storage.New(ctx, up.StorageConfig())
		if err != nil {
			logger.Warn("report upload disabled", slog.String("error", err.Error()))
		} else {
			deps.uploader = store
			deps.uploadPrefix = up.KeyPrefix()
		}
	}

	return deps, cleanup
}

// resultScanner runs scans and owns the browser session.
type resultScanner interface {
	Scan(ctx context.Context, opts model.ToolOptions) (*model.ScanResult, error)
	Close() error
}

// runScan scans every target in order and reports each result.
// It stops at the first scan failure and returns the worst outcome seen.
func runScan(ctx context.Context, out io.Writer, cfg *config.Config, sc resultScanner, deps outputDeps, logger *slog.Logger) (outcome model.Outcome, err error) {
	defer func() {
		if cerr := sc.Close(); cerr != nil {
			logger.Warn("failed to close browser", slog.String("error", cerr.Error()))
		}
	}()

	outcome = model.OutcomeClean
	for _, target := range cfg.Targets {
		opts := cfg.ToolOptions(target)
		if !cfg.NoJSON && opts.OutputPath == "" {
			opts.OutputPath = report.DefaultOutputPath(cfg.ReportDir, target, time.Now())
		}

		fmt.Fprintf(out, "Starting accessibility scan for: %s\n", target)
		fmt.Fprintf(out, "   WCAG Levels: %s\n\n", formatLevels(opts.EffectiveLevels()))

		result, err := sc.Scan(ctx, opts)
		if err != nil {
			return model.OutcomeError, fmt.Errorf("scan of %s failed: %w", target, err)
		}

		// Every output is attempted; a failed report file still fails the run.
		run := pipeline.NewRun(result)
		p := pipeline.NewOutputPipeline(outputConfig(out, cfg, opts, deps),
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		)
		if err := p.Execute(ctx, run); err != nil {
			return model.OutcomeError, err
		}
		printArtifacts(out, run)
		if run.Error != nil {
			return model.OutcomeError, fmt.Errorf("failed to write reports for %s: %w", target, run.Error)
		}

		if o := model.OutcomeOf(result); o > outcome {
			outcome = o
		}
	}

	return outcome, nil
}

// outputConfig selects the outputs of one scan. CSV, Markdown and the
// screenshot are placed next to the output path. With --no-json only the
// report files are skipped; the screenshot still follows the output path.
func outputConfig(out io.Writer, cfg *config.Config, opts model.ToolOptions, deps outputDeps) pipeline.OutputConfig {
	oc := pipeline.OutputConfig{
		Console:      out,
		Verbose:      opts.Verbose,
		UploadPrefix: deps.uploadPrefix,
	}
	if deps.history != nil {
		oc.History = deps.history
	}
	if deps.uploader != nil {
		oc.Uploader = deps.uploader
	}

	if opts.OutputPath == "" {
		return oc
	}
	if opts.Screenshot {
		oc.ScreenshotPath = report.ScreenshotPath(opts.OutputPath)
	}
	if cfg.NoJSON {
		return oc
	}
	oc.JSONPath = opts.OutputPath
	if cfg.CSV {
		oc.CSVPath = report.CSVPath(opts.OutputPath)
	}
	if cfg.Markdown {
		oc.MarkdownPath = report.MarkdownPath(opts.OutputPath)
	}
	return oc
}

// printArtifacts tells the user where each output went.
func printArtifacts(out io.Writer, run *pipeline.Run) {
	for _, a := range run.Artifacts {
		switch a.Kind {
		case pipeline.ArtifactJSON:
			fmt.Fprintf(out, "JSON report saved to: %s\n", a.Location)
		case pipeline.ArtifactCSV:
			fmt.Fprintf(out, "CSV summary saved to: %s\n", a.Location)
		case pipeline.ArtifactMarkdown:
			fmt.Fprintf(out, "Markdown report saved to: %s\n", a.Location)
		case pipeline.ArtifactScreenshot:
			fmt.Fprintf(out, "Screenshot saved to: %s\n", a.Location)
		case pipeline.ArtifactUpload:
			fmt.Fprintf(out, "Uploaded: %s\n", a.Location)
		}
	}
}

// formatLevels joins levels for display, e.g. "A, AA".
func formatLevels(levels []model.WCAGLevel) string {
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}
