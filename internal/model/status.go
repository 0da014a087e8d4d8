package model

// Status is the terminal state of a single build task.
type Status string

const (
	// StatusSucceeded means every step completed and the task produced its
	// declared outputs.
	StatusSucceeded Status = "SUCCEEDED"

	// StatusFailed means a step failed, the task timed out, was cancelled,
	// or an expected artifact was missing.
	StatusFailed Status = "FAILED"
)

// Outcome is the terminal state of a whole orchestration run.
type Outcome string

const (
	// OutcomeDone means at least one target succeeded and aggregation
	// completed; every target may still be inspected in the report.
	OutcomeDone Outcome = "DONE"

	// OutcomePartiallyFailed means some targets failed but the successful
	// ones were aggregated into the release.
	OutcomePartiallyFailed Outcome = "PARTIALLY_FAILED"

	// OutcomeFailed means no target succeeded, or aggregation itself could
	// not complete after retries.
	OutcomeFailed Outcome = "FAILED"
)
