package orchestrator

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// TargetReport is one target's outcome in the run report.
type TargetReport struct {
	Target     string        `json:"target"`
	Status     model.Status  `json:"status"`
	FailedStep string        `json:"failed_step,omitempty"`
	Error      string        `json:"error,omitempty"`
	Artifacts  []string      `json:"artifacts,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// ReleaseSummary describes the release record after aggregation.
type ReleaseSummary struct {
	Tag           string `json:"tag"`
	Created       bool   `json:"created"`
	Draft         bool   `json:"draft"`
	ArtifactCount int    `json:"artifact_count"`
}

// Report is the structured summary of one orchestration run.
type Report struct {
	RunID   string          `json:"run_id"`
	Tag     string          `json:"tag"`
	Outcome model.Outcome   `json:"outcome"`
	Targets []TargetReport  `json:"targets"`
	Release *ReleaseSummary `json:"release,omitempty"`
}

// newReport snapshots per-target results; Outcome and Release are filled
// in by the driver once aggregation settles.
func newReport(runID uuid.UUID, tag string, results []model.BuildResult) *Report {
	report := &Report{
		RunID:   runID.String(),
		Tag:     tag,
		Targets: make([]TargetReport, 0, len(results)),
	}
	for i := range results {
		r := &results[i]
		entry := TargetReport{
			Target:     r.Target.ID(),
			Status:     r.Status,
			FailedStep: r.FailedStep,
			Error:      r.ErrorDetail,
			Duration:   r.Duration,
		}
		for _, b := range r.Bundles {
			entry.Artifacts = append(entry.Artifacts, b.Name)
		}
		report.Targets = append(report.Targets, entry)
	}
	return report
}

// WriteText renders the human-readable summary.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "run %s  tag %s  %s\n", r.RunID, r.Tag, r.Outcome)
	for _, t := range r.Targets {
		switch {
		case t.Status == model.StatusSucceeded:
			fmt.Fprintf(w, "  %-20s %-10s %s  artifacts: %v\n", t.Target, t.Status, t.Duration.Round(time.Millisecond), t.Artifacts)
		case t.FailedStep != "":
			fmt.Fprintf(w, "  %-20s %-10s at step %q: %s\n", t.Target, t.Status, t.FailedStep, t.Error)
		default:
			fmt.Fprintf(w, "  %-20s %-10s %s\n", t.Target, t.Status, t.Error)
		}
	}
	if r.Release != nil {
		action := "updated"
		if r.Release.Created {
			action = "created"
		}
		fmt.Fprintf(w, "release %s (%s, draft=%t): %d asset(s)\n", r.Release.Tag, action, r.Release.Draft, r.Release.ArtifactCount)
	}
}
