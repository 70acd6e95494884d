package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/model"
)

type fakeHistory struct {
	saved []*model.ScanResult
	err   error
}

func (h *fakeHistory) SaveScan(_ context.Context, result *model.ScanResult) (int64, error) {
	if h.err != nil {
		return 0, h.err
	}
	h.saved = append(h.saved, result)
	return int64(len(h.saved)), nil
}

type upload struct {
	key, path, contentType string
}

type fakeUploader struct {
	uploads []upload
	err     error
}

func (u *fakeUploader) Upload(_ context.Context, key, path, contentType string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	u.uploads = append(u.uploads, upload{key: key, path: path, contentType: contentType})
	return "s3://bucket/" + key, nil
}

func sampleResult() *model.ScanResult {
	return &model.ScanResult{
		URL: "https://example.com",
		Violations: []model.Violation{{
			ID:     "image-alt",
			Impact: model.ImpactCritical,
			Nodes:  []model.ViolationNode{{HTML: "<img>", Target: []string{"img"}}},
		}},
		Passes: 3,
	}
}

func TestOutputPipeline(t *testing.T) {
	t.Parallel()

	t.Run("writes every configured output", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		shot := filepath.Join(dir, "report.png")
		if err := os.WriteFile(shot, []byte("png"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		var console bytes.Buffer
		history := &fakeHistory{}
		uploader := &fakeUploader{}

		p := NewOutputPipeline(OutputConfig{
			Console:        &console,
			JSONPath:       filepath.Join(dir, "report.json"),
			CSVPath:        filepath.Join(dir, "report.csv"),
			MarkdownPath:   filepath.Join(dir, "report.md"),
			ScreenshotPath: shot,
			History:        history,
			Uploader:       uploader,
			UploadPrefix:   "scans",
		}, WithLogger(quietLogger()))

		expectedSteps := []string{"console", "json_report", "csv_report", "markdown_report", "screenshot", "history", "upload"}
		if strings.Join(p.StepNames(), ",") != strings.Join(expectedSteps, ",") {
			t.Errorf("unexpected steps %v", p.StepNames())
		}

		run := NewRun(sampleResult())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(console.String(), "image-alt") {
			t.Error("expected console report")
		}
		for _, name := range []string{"report.json", "report.csv", "report.md"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("expected %s: %v", name, err)
			}
		}
		if len(history.saved) != 1 {
			t.Errorf("expected one history record, got %d", len(history.saved))
		}
		if len(uploader.uploads) != 4 {
			t.Fatalf("expected 4 uploads, got %d", len(uploader.uploads))
		}
		first := uploader.uploads[0]
		if first.key != "scans/"+run.ID+"/report.json" || first.contentType != "application/json" {
			t.Errorf("unexpected first upload %+v", first)
		}
		if uploader.uploads[3].contentType != "image/png" {
			t.Errorf("expected screenshot uploaded last, got %+v", uploader.uploads[3])
		}
	})

	t.Run("optional failures are not fatal", func(t *testing.T) {
		t.Parallel()

		p := NewOutputPipeline(OutputConfig{
			JSONPath: filepath.Join(t.TempDir(), "r.json"),
			History:  &fakeHistory{err: errors.New("database is locked")},
			Uploader: &fakeUploader{err: errors.New("access denied")},
		}, WithLogger(quietLogger()))

		run := NewRun(sampleResult())
		if err := p.Execute(context.Background(), run); err != nil {
			t.Errorf("expected optional failures to be ignored, got %v", err)
		}
		if len(run.Performed) != 3 {
			t.Errorf("expected all steps performed, got %v", run.Performed)
		}
	})

	t.Run("report write failure is fatal", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("setup: %v", err)
		}

		history := &fakeHistory{}
		p := NewOutputPipeline(OutputConfig{
			JSONPath: filepath.Join(blocker, "r.json"),
			History:  history,
		}, WithLogger(quietLogger()))

		if err := p.Execute(context.Background(), NewRun(sampleResult())); err == nil {
			t.Error("expected error")
		}
		if len(history.saved) != 0 {
			t.Error("expected later steps to be skipped")
		}
	})
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	if got := objectKey("", "id", "a.json"); got != "id/a.json" {
		t.Errorf("unexpected key %q", got)
	}
	if got := objectKey("reports/prod", "id", "a.json"); got != "reports/prod/id/a.json" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestRunFiles(t *testing.T) {
	t.Parallel()

	run := testRun()
	run.AddArtifact(ArtifactJSON, "a.json")
	run.AddArtifact(ArtifactHistory, "7")
	run.AddArtifact(ArtifactUpload, "s3://b/a.json")
	run.AddArtifact(ArtifactCSV, "a.csv")

	files := run.Files()
	if len(files) != 2 || files[0].Location != "a.json" || files[1].Location != "a.csv" {
		t.Errorf("unexpected files %+v", files)
	}
}
