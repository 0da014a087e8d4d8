package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/config"
)

// BuildResult is the immutable record of one target's task within a run.
// It is created once the task reaches a terminal state.
type BuildResult struct {
	RunID  uuid.UUID
	Target config.Target
	Status Status

	// FailedStep is the name of the step that failed, when Status is
	// StatusFailed because of a step error.
	FailedStep string

	// ErrorDetail is a human-readable failure description.
	ErrorDetail string

	// Bundles are the collected artifact bundles. Empty for failed tasks.
	Bundles []ArtifactBundle

	Duration time.Duration
}

// Failed reports whether the task ended in failure.
func (r *BuildResult) Failed() bool {
	return r.Status == StatusFailed
}
