package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Version is the dispatched release version for one-shot mode.
	Version string

	// MatrixPath points at the HCL build matrix file.
	MatrixPath string

	// ArtifactsDir is the root of the artifact storage namespace.
	ArtifactsDir string

	// WorkDir is the working directory for command steps.
	WorkDir string

	// Workers bounds concurrent build tasks.
	Workers int

	// TaskTimeout overrides the default per-task timeout when positive.
	TaskTimeout time.Duration

	// Draft and AllowUpdates combine with the matrix file's release block;
	// either side saying false wins.
	Draft        bool
	AllowUpdates bool

	// ReleaseURL overrides the matrix file's release host URL.
	ReleaseURL string

	// ReleaseToken is the release host credential. Carried here explicitly
	// and never logged.
	ReleaseToken string

	// DryRun routes aggregation to an in-memory release host.
	DryRun bool

	// ListenPort, when positive, starts the dispatch webhook instead of a
	// one-shot run.
	ListenPort int

	// HealthcheckPort, when positive, serves /health and /metrics.
	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.MatrixPath == "" {
		return nil, errors.New("MatrixPath is a required configuration field and cannot be empty")
	}
	if cfg.Version == "" && cfg.ListenPort <= 0 {
		return nil, errors.New("either Version or ListenPort must be provided")
	}
	if cfg.ArtifactsDir == "" {
		cfg.ArtifactsDir = "dist"
	}
	return &cfg, nil
}
