package release

import "errors"

// Failure taxonomy for the release host path.
var (
	// ErrNotFound — no release exists for the tag.
	ErrNotFound = errors.New("release not found")

	// ErrConflict — a concurrent writer raced this update; the caller must
	// re-read the record and retry the merge.
	ErrConflict = errors.New("release update conflict")

	// ErrRemoteUnavailable — transient host or transport failure; safe to
	// retry with backoff.
	ErrRemoteUnavailable = errors.New("release host unavailable")

	// ErrReleaseExists — a release already exists for the tag and updates
	// were not allowed for this run.
	ErrReleaseExists = errors.New("release already exists")

	// ErrAggregationFatal — retries exhausted; the run cannot converge on
	// a consistent release record.
	ErrAggregationFatal = errors.New("aggregation failed after retries")
)
