package pipeline

import (
	"github.com/google/uuid"

	"github.com/nao1215/a11yscan/internal/model"
)

// Artifact is something a step produced: a report file, a history record
// or an uploaded object.
type Artifact struct {
	// Kind is the step-defined category, e.g. "json", "csv", "history", "upload".
	Kind string

	// Location is a file path, record ID or object URL.
	Location string
}

// Run carries one scan result through the output steps.
type Run struct {
	// ID identifies this run. Upload steps use it as the object key prefix.
	ID string

	// Result is the scan being reported. Steps must not modify it.
	Result *model.ScanResult

	// Summary is computed once so every step reports the same figures.
	Summary model.ScanSummary

	// Artifacts lists what the steps produced, in execution order.
	Artifacts []Artifact

	// Performed lists the names of the steps that ran.
	Performed []string

	// Error holds the last step failure, if any.
	Error error
}

// NewRun prepares a Run for result with a fresh ID.
func NewRun(result *model.ScanResult) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Result:  result,
		Summary: model.Summarize(result),
	}
}

// AddArtifact records a produced artifact.
func (r *Run) AddArtifact(kind, location string) {
	r.Artifacts = append(r.Artifacts, Artifact{Kind: kind, Location: location})
}

// Files returns the artifacts that are local files, in production order.
func (r *Run) Files() []Artifact {
	files := make([]Artifact, 0, len(r.Artifacts))
	for _, a := range r.Artifacts {
		switch a.Kind {
		case ArtifactJSON, ArtifactCSV, ArtifactMarkdown, ArtifactScreenshot:
			files = append(files, a)
		}
	}
	return files
}

// Artifact kinds.
const (
	ArtifactJSON       = "json"
	ArtifactCSV        = "csv"
	ArtifactMarkdown   = "markdown"
	ArtifactScreenshot = "screenshot"
	ArtifactHistory    = "history"
	ArtifactUpload     = "upload"
)
