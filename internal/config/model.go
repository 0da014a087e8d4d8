package config

import (
	"fmt"
	"time"
)

// Model is the fully validated build matrix configuration for one run.
type Model struct {
	Release ReleaseConfig
	Storage StorageConfig
	Targets []Target
}

// ReleaseConfig describes the release host the aggregator talks to.
type ReleaseConfig struct {
	// URL is the base URL of the release host API. A CLI flag may override it.
	URL string

	// Draft controls whether a freshly created release starts as a draft.
	Draft bool

	// AllowUpdates permits merging into a release that already exists for
	// the tag. When false, a pre-existing release is a fatal error.
	AllowUpdates bool
}

// StorageConfig selects the artifact store backend.
type StorageConfig struct {
	// Backend is "fs" (default) or "s3".
	Backend string

	// Bucket and Prefix apply to the "s3" backend only.
	Bucket string
	Prefix string
}

// Target is one platform/architecture combination in the build matrix,
// together with its ordered step sequence and declared artifact patterns.
type Target struct {
	Platform string
	Arch     string

	// Timeout bounds the whole task. Zero means the executor default.
	Timeout time.Duration

	// Env is merged into the environment of every command step.
	Env map[string]string

	// Steps run strictly in order; the first failure aborts the rest.
	Steps []Step

	// Artifacts are glob patterns, resolved inside the target's output
	// namespace after a successful build. Every pattern must match at
	// least one file.
	Artifacts []string
}

// ID returns the stable identifier for a target, e.g. "windows-amd64".
func (t Target) ID() string {
	return fmt.Sprintf("%s-%s", t.Platform, t.Arch)
}

// Step kinds.
const (
	StepKindCommand = "command"
	StepKindArchive = "archive"
)

// Step is a single named build step. Exactly one of Run or Archive is set.
type Step struct {
	Name string

	// Run is an argv vector executed as an external process.
	Run []string

	// Archive zips files from the workspace into the output namespace.
	Archive *ArchiveSpec
}

// ArchiveSpec declares the inputs and output name of an archive step.
type ArchiveSpec struct {
	// Sources are files, directories (added recursively) or glob patterns,
	// relative to the working directory.
	Sources []string

	// Output is the bundle file name created inside the target's output
	// namespace.
	Output string
}

// Kind reports which runner executes this step, or an empty string if the
// step is malformed.
func (s Step) Kind() string {
	switch {
	case len(s.Run) > 0 && s.Archive == nil:
		return StepKindCommand
	case len(s.Run) == 0 && s.Archive != nil:
		return StepKindArchive
	default:
		return ""
	}
}
