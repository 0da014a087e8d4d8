package config

import "context"

// Vars are the run-scoped values a matrix file may interpolate.
type Vars struct {
	// Version is the dispatched release version, verbatim.
	Version string

	// Tag is the release tag derived from the version.
	Tag string
}

// Loader parses a matrix file into the agnostic Model. Implementations own
// all parsing and validation; a returned Model is safe to execute.
type Loader interface {
	Load(ctx context.Context, path string, vars Vars) (*Model, error)
}
