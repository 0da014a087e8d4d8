package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/artifact"
	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/model"
	"github.com/specialistvlad/shipgrid/internal/steprun"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// runTask executes one target's step sequence to a terminal state. The
// task context carries the per-target timeout; cancellation is observed
// cooperatively at step boundaries, so a cancelled task stops before its
// next step and contributes no bundles downstream.
func (e *Executor) runTask(ctx context.Context, release trigger.ValidatedRelease, runID uuid.UUID, target config.Target) model.BuildResult {
	logger := ctxlog.FromContext(ctx).With("target", target.ID())
	started := time.Now()

	result := model.BuildResult{RunID: runID, Target: target}

	timeout := target.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outputDir := artifact.Namespace(e.baseDir, runID, target)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return e.finish(logger, result, started, "", fmt.Sprintf("failed to create output namespace: %v", err))
	}

	env := buildEnv(release, target, outputDir)

	logger.Info("Build task started.", "steps", len(target.Steps), "timeout", timeout)
	for _, step := range target.Steps {
		if err := taskCtx.Err(); err != nil {
			return e.finish(logger, result, started, step.Name, fmt.Sprintf("aborted before step: %v", err))
		}

		err := e.registry.Run(taskCtx, steprun.Invocation{
			Step:      step,
			OutputDir: outputDir,
			WorkDir:   e.workDir,
			Env:       env,
		})
		if err != nil {
			var stepErr *steprun.StepError
			detail := err.Error()
			name := step.Name
			if errors.As(err, &stepErr) {
				name = stepErr.Step
				detail = stepErr.Err.Error()
			}
			return e.finish(logger, result, started, name, detail)
		}
	}

	result.Status = model.StatusSucceeded
	result.Duration = time.Since(started)
	e.metrics.ObserveBuild(string(result.Status), result.Duration)
	logger.Info("Build task succeeded.", "duration", result.Duration)
	return result
}

// finish marks the result failed with the failing step's identity.
func (e *Executor) finish(logger *slog.Logger, result model.BuildResult, started time.Time, step, detail string) model.BuildResult {
	result.Status = model.StatusFailed
	result.FailedStep = step
	result.ErrorDetail = detail
	result.Duration = time.Since(started)
	e.metrics.ObserveBuild(string(result.Status), result.Duration)
	logger.Error("Build task failed.", "step", step, "error", detail)
	return result
}

// buildEnv materializes the environment for a target's command steps: the
// process environment, the target's env map, then the run-scoped values.
func buildEnv(release trigger.ValidatedRelease, target config.Target, outputDir string) []string {
	env := os.Environ()
	for k, v := range target.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	env = append(env,
		"SHIPGRID_VERSION="+release.Version,
		"SHIPGRID_TAG="+release.Tag(),
		"SHIPGRID_OUTPUT_DIR="+outputDir,
		"SHIPGRID_PLATFORM="+target.Platform,
		"SHIPGRID_ARCH="+target.Arch,
	)
	return env
}
