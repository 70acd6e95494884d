package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/report"
)

// ConsoleStep prints the human-readable report.
type ConsoleStep struct {
	output  io.Writer
	verbose bool
}

// NewConsoleStep creates a step writing the console report to output.
func NewConsoleStep(output io.Writer, verbose bool) *ConsoleStep {
	return &ConsoleStep{output: output, verbose: verbose}
}

// Name returns the step name.
func (s *ConsoleStep) Name() string {
	return "console"
}

// Do writes the report.
func (s *ConsoleStep) Do(_ context.Context, run *Run) error {
	_, err := report.NewConsoleWriter(s.output, report.WithVerbose(s.verbose)).Write(run.Result)
	return err
}

// saveFunc matches report.SaveJSON and its siblings.
type saveFunc func(*model.ScanResult, string) error

// FileStep writes one report file.
type FileStep struct {
	kind string
	path string
	save saveFunc
}

// NewJSONStep creates a step saving the JSON report to path.
func NewJSONStep(path string) *FileStep {
	return &FileStep{kind: ArtifactJSON, path: path, save: report.SaveJSON}
}

// NewCSVStep creates a step saving the CSV report to path.
func NewCSVStep(path string) *FileStep {
	return &FileStep{kind: ArtifactCSV, path: path, save: report.SaveCSV}
}

// NewMarkdownStep creates a step saving the Markdown report to path.
func NewMarkdownStep(path string) *FileStep {
	return &FileStep{kind: ArtifactMarkdown, path: path, save: report.SaveMarkdown}
}

// Name returns the step name.
func (s *FileStep) Name() string {
	return s.kind + "_report"
}

// Path returns the file the step writes.
func (s *FileStep) Path() string {
	return s.path
}

// Do saves the report and records the file.
func (s *FileStep) Do(_ context.Context, run *Run) error {
	if err := s.save(run.Result, s.path); err != nil {
		return err
	}
	run.AddArtifact(s.kind, s.path)
	return nil
}

// ScreenshotArtifactStep records a screenshot the scanner already wrote, so
// that later steps (upload) pick it up.
type ScreenshotArtifactStep struct {
	path string
}

// NewScreenshotArtifactStep creates a step registering the screenshot at path.
func NewScreenshotArtifactStep(path string) *ScreenshotArtifactStep {
	return &ScreenshotArtifactStep{path: path}
}

// Name returns the step name.
func (s *ScreenshotArtifactStep) Name() string {
	return "screenshot"
}

// Do records the screenshot.
func (s *ScreenshotArtifactStep) Do(_ context.Context, run *Run) error {
	run.AddArtifact(ArtifactScreenshot, s.path)
	return nil
}

// HistoryStore persists scan results for later comparison.
type HistoryStore interface {
	SaveScan(ctx context.Context, result *model.ScanResult) (int64, error)
}

// HistoryStep saves the result to the scan history.
type HistoryStep struct {
	store HistoryStore
}

// NewHistoryStep creates a step saving to store.
func NewHistoryStep(store HistoryStore) *HistoryStep {
	return &HistoryStep{store: store}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return "history"
}

// Do saves the result.
func (s *HistoryStep) Do(ctx context.Context, run *Run) error {
	id, err := s.store.SaveScan(ctx, run.Result)
	if err != nil {
		return fmt.Errorf("failed to save scan history: %w", err)
	}
	run.AddArtifact(ArtifactHistory, strconv.FormatInt(id, 10))
	return nil
}

// Uploader stores a local file under key and returns its location.
type Uploader interface {
	Upload(ctx context.Context, key, path, contentType string) (string, error)
}

// UploadStep uploads every file produced by earlier steps.
type UploadStep struct {
	uploader Uploader
	prefix   string
}

// NewUploadStep creates a step uploading under prefix/<run id>/.
func NewUploadStep(uploader Uploader, prefix string) *UploadStep {
	return &UploadStep{uploader: uploader, prefix: prefix}
}

// Name returns the step name.
func (s *UploadStep) Name() string {
	return "upload"
}

// Do uploads the files. It stops at the first failure.
func (s *UploadStep) Do(ctx context.Context, run *Run) error {
	for _, file := range run.Files() {
		key := objectKey(s.prefix, run.ID, filepath.Base(file.Location))
		location, err := s.uploader.Upload(ctx, key, file.Location, contentType(file.Kind))
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", file.Location, err)
		}
		run.AddArtifact(ArtifactUpload, location)
	}
	return nil
}

func objectKey(prefix, runID, name string) string {
	if prefix == "" {
		return runID + "/" + name
	}
	return prefix + "/" + runID + "/" + name
}

func contentType(kind string) string {
	switch kind {
	case ArtifactJSON:
		return "application/json"
	case ArtifactCSV:
		return "text/csv"
	case ArtifactMarkdown:
		return "text/markdown"
	case ArtifactScreenshot:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// bestEffortStep logs the failure of the wrapped step and reports success.
type bestEffortStep struct {
	step   Step
	logger *slog.Logger
}

// BestEffort wraps step so that its failure is logged as a warning and
// does not stop the pipeline or change the exit outcome.
func BestEffort(step Step, logger *slog.Logger) Step {
	if logger == nil {
		logger = slog.Default()
	}
	return &bestEffortStep{step: step, logger: logger}
}

func (s *bestEffortStep) Name() string {
	return s.step.Name()
}

func (s *bestEffortStep) Do(ctx context.Context, run *Run) error {
	if err := s.step.Do(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "optional step failed", "step", s.step.Name(), "error", err)
	}
	return nil
}

// OutputConfig selects the outputs of a scan.
type OutputConfig struct {
	// Console receives the human-readable report. Nil disables it.
	Console io.Writer
	Verbose bool

	// JSONPath, CSVPath and MarkdownPath are written when non-empty.
	JSONPath     string
	CSVPath      string
	MarkdownPath string

	// ScreenshotPath is registered for upload when non-empty.
	ScreenshotPath string

	// History is saved to when non-nil. Failures are only logged.
	History HistoryStore

	// Uploader receives every file when non-nil. Failures are only logged.
	Uploader     Uploader
	UploadPrefix string
}

// NewOutputPipeline builds the standard post-scan pipeline: console, JSON,
// CSV, Markdown, screenshot registration, history, then upload.
func NewOutputPipeline(cfg OutputConfig, opts ...Option) *Pipeline {
	p := New(opts...)

	var steps []Step
	if cfg.Console != nil {
		steps = append(steps, NewConsoleStep(cfg.Console, cfg.Verbose))
	}
	if cfg.JSONPath != "" {
		steps = append(steps, NewJSONStep(cfg.JSONPath))
	}
	if cfg.CSVPath != "" {
		steps = append(steps, NewCSVStep(cfg.CSVPath))
	}
	if cfg.MarkdownPath != "" {
		steps = append(steps, NewMarkdownStep(cfg.MarkdownPath))
	}
	if cfg.ScreenshotPath != "" {
		steps = append(steps, NewScreenshotArtifactStep(cfg.ScreenshotPath))
	}
	if cfg.History != nil {
		steps = append(steps, BestEffort(NewHistoryStep(cfg.History), p.logger))
	}
	if cfg.Uploader != nil {
		steps = append(steps, BestEffort(NewUploadStep(cfg.Uploader, cfg.UploadPrefix), p.logger))
	}
	p.AddSteps(steps...)

	return p
}
