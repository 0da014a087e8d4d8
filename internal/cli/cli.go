package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/specialistvlad/shipgrid/internal/app"
	"github.com/specialistvlad/shipgrid/internal/model"
)

// tokenEnvVar names the environment variable carrying the release-host
// credential. It is read exactly once, here, and passed on explicitly.
const tokenEnvVar = "SHIPGRID_RELEASE_TOKEN"

// Exit codes. Calling automation distinguishes a partial release from a
// total failure.
const (
	ExitDone            = 0
	ExitFailed          = 1
	ExitUsage           = 2
	ExitPartiallyFailed = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// CodeForOutcome maps a run outcome to the process exit code.
func CodeForOutcome(outcome model.Outcome) int {
	switch outcome {
	case model.OutcomeDone:
		return ExitDone
	case model.OutcomePartiallyFailed:
		return ExitPartiallyFailed
	default:
		return ExitFailed
	}
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("shipgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Shipgrid - A declarative, concurrency-first release build orchestrator.

Builds every target of a platform/architecture matrix in parallel and
merges the produced artifact bundles into one draft release on the
release host, idempotently.

Usage:
  shipgrid --version VERSION --matrix-config PATH [options]
  shipgrid --listen-port PORT --matrix-config PATH [options]

Environment:
  SHIPGRID_RELEASE_TOKEN
    Credential for the release host API.

Options:
`)
		flagSet.PrintDefaults()
	}

	versionFlag := flagSet.String("version", "", "Release version to dispatch (one-shot mode).")
	matrixFlag := flagSet.String("matrix-config", "", "Path to the HCL build matrix file.")
	artifactsFlag := flagSet.String("artifacts-dir", "dist", "Root directory for build task output namespaces.")
	workdirFlag := flagSet.String("workdir", ".", "Working directory for command steps.")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent build tasks.")
	taskTimeoutFlag := flagSet.Duration("task-timeout", 0, "Default per-task timeout. 0 uses the built-in default.")
	draftFlag := flagSet.Bool("draft", true, "Create the release as a draft.")
	allowUpdatesFlag := flagSet.Bool("allow-updates", true, "Permit merging into an existing release for the tag.")
	releaseURLFlag := flagSet.String("release-url", "", "Release host API base URL. Overrides the matrix file.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Aggregate into an in-memory release host instead of the real one.")
	listenPortFlag := flagSet.Int("listen-port", 0, "Port for the dispatch webhook. 0 is disabled (one-shot mode).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	if *matrixFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: ExitUsage, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *versionFlag == "" && *listenPortFlag <= 0 {
		return nil, false, &ExitError{Code: ExitUsage, Message: "either --version or --listen-port is required"}
	}

	config, err := app.NewConfig(app.Config{
		Version:         *versionFlag,
		MatrixPath:      *matrixFlag,
		ArtifactsDir:    *artifactsFlag,
		WorkDir:         *workdirFlag,
		Workers:         *workersFlag,
		TaskTimeout:     *taskTimeoutFlag,
		Draft:           *draftFlag,
		AllowUpdates:    *allowUpdatesFlag,
		ReleaseURL:      *releaseURLFlag,
		ReleaseToken:    os.Getenv(tokenEnvVar),
		DryRun:          *dryRunFlag,
		ListenPort:      *listenPortFlag,
		HealthcheckPort: *healthPortFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	return config, false, nil
}
