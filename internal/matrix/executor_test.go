package matrix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/model"
	"github.com/specialistvlad/shipgrid/internal/steprun"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// scriptRunner interprets a step's argv as a tiny test script:
//
//	["produce", name...]  write each named file into the output namespace
//	["fail", message]     fail with the message
//	["block"]             block until the step context is cancelled
type scriptRunner struct {
	invocations chan steprun.Invocation
}

func (r *scriptRunner) Run(ctx context.Context, inv steprun.Invocation) error {
	if r.invocations != nil {
		r.invocations <- inv
	}
	switch inv.Step.Run[0] {
	case "produce":
		for _, name := range inv.Step.Run[1:] {
			if err := os.WriteFile(filepath.Join(inv.OutputDir, name), []byte(name), 0o644); err != nil {
				return err
			}
		}
		return nil
	case "fail":
		return errors.New(strings.Join(inv.Step.Run[1:], " "))
	case "block":
		<-ctx.Done()
		return ctx.Err()
	default:
		return errors.New("unknown script op")
	}
}

func newScriptRegistry(runner *scriptRunner) *steprun.Registry {
	registry := steprun.NewRegistry()
	registry.Register(config.StepKindCommand, runner)
	return registry
}

func commandTarget(platform, arch string, steps ...config.Step) config.Target {
	return config.Target{Platform: platform, Arch: arch, Steps: steps, Artifacts: []string{"*"}}
}

func step(name string, script ...string) config.Step {
	return config.Step{Name: name, Run: script}
}

func TestExecutorExecute(t *testing.T) {
	t.Parallel()

	release := trigger.ValidatedRelease{Version: "v2.1.0"}

	t.Run("runs every target and returns results in matrix order", func(t *testing.T) {
		baseDir := t.TempDir()
		executor := New(Config{
			Registry: newScriptRegistry(&scriptRunner{}),
			BaseDir:  baseDir,
		})

		targets := []config.Target{
			commandTarget("linux", "amd64", step("build", "produce", "app-linux.zip")),
			commandTarget("windows", "amd64", step("build", "produce", "app-windows.zip")),
		}

		runID := uuid.New()
		results := executor.Execute(context.Background(), release, runID, targets)
		require.Len(t, results, 2)

		assert.Equal(t, "linux-amd64", results[0].Target.ID())
		assert.Equal(t, "windows-amd64", results[1].Target.ID())
		for _, result := range results {
			assert.Equal(t, model.StatusSucceeded, result.Status)
			assert.Equal(t, runID, result.RunID)
		}

		assert.FileExists(t, filepath.Join(baseDir, runID.String(), "linux-amd64", "app-linux.zip"))
		assert.FileExists(t, filepath.Join(baseDir, runID.String(), "windows-amd64", "app-windows.zip"))
	})

	t.Run("exposes run-scoped values in the step environment", func(t *testing.T) {
		runner := &scriptRunner{invocations: make(chan steprun.Invocation, 1)}
		executor := New(Config{
			Registry: newScriptRegistry(runner),
			BaseDir:  t.TempDir(),
		})

		target := commandTarget("linux", "arm64", step("build", "produce"))
		target.Env = map[string]string{"CGO_ENABLED": "0"}

		results := executor.Execute(context.Background(), release, uuid.New(), []config.Target{target})
		require.Equal(t, model.StatusSucceeded, results[0].Status)

		inv := <-runner.invocations
		env := strings.Join(inv.Env, "\n")
		assert.Contains(t, env, "SHIPGRID_VERSION=v2.1.0")
		assert.Contains(t, env, "SHIPGRID_TAG=v2.1.0")
		assert.Contains(t, env, "SHIPGRID_PLATFORM=linux")
		assert.Contains(t, env, "SHIPGRID_ARCH=arm64")
		assert.Contains(t, env, "SHIPGRID_OUTPUT_DIR="+inv.OutputDir)
		assert.Contains(t, env, "CGO_ENABLED=0")
	})

	t.Run("a failing step fails only its own target", func(t *testing.T) {
		executor := New(Config{
			Registry: newScriptRegistry(&scriptRunner{}),
			BaseDir:  t.TempDir(),
		})

		targets := []config.Target{
			commandTarget("linux", "amd64", step("build", "produce", "A.zip")),
			commandTarget("windows", "amd64",
				step("build", "produce", "B.zip"),
				step("sign", "fail", "signing key unavailable"),
			),
		}

		results := executor.Execute(context.Background(), release, uuid.New(), targets)
		require.Len(t, results, 2)

		assert.Equal(t, model.StatusSucceeded, results[0].Status)

		failed := results[1]
		assert.Equal(t, model.StatusFailed, failed.Status)
		assert.Equal(t, "sign", failed.FailedStep)
		assert.Contains(t, failed.ErrorDetail, "signing key unavailable")
	})

	t.Run("a blocking step hits the target timeout", func(t *testing.T) {
		executor := New(Config{
			Registry: newScriptRegistry(&scriptRunner{}),
			BaseDir:  t.TempDir(),
		})

		target := commandTarget("linux", "amd64", step("stall", "block"))
		target.Timeout = 50 * time.Millisecond

		results := executor.Execute(context.Background(), release, uuid.New(), []config.Target{target})
		require.Equal(t, model.StatusFailed, results[0].Status)
		assert.Equal(t, "stall", results[0].FailedStep)
		assert.Contains(t, results[0].ErrorDetail, context.DeadlineExceeded.Error())
	})

	t.Run("cancellation is observed at the next step boundary", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		executor := New(Config{
			Registry: newScriptRegistry(&scriptRunner{}),
			BaseDir:  t.TempDir(),
		})

		target := commandTarget("linux", "amd64", step("build", "produce", "A.zip"))
		results := executor.Execute(ctx, release, uuid.New(), []config.Target{target})

		require.Equal(t, model.StatusFailed, results[0].Status)
		assert.Equal(t, "build", results[0].FailedStep)
		assert.Contains(t, results[0].ErrorDetail, "aborted before step")
	})

	t.Run("targets build in parallel up to the worker bound", func(t *testing.T) {
		// Both steps block until the other has started. This only completes
		// if two tasks genuinely run at the same time.
		rendezvous := make(chan struct{}, 2)
		runner := &barrierRunner{arrive: rendezvous, parties: 2}
		registry := steprun.NewRegistry()
		registry.Register(config.StepKindCommand, runner)

		executor := New(Config{
			Registry: registry,
			Workers:  2,
			BaseDir:  t.TempDir(),
		})

		targets := []config.Target{
			commandTarget("linux", "amd64", step("sync", "produce")),
			commandTarget("windows", "amd64", step("sync", "produce")),
		}

		done := make(chan []model.BuildResult, 1)
		go func() {
			done <- executor.Execute(context.Background(), release, uuid.New(), targets)
		}()

		select {
		case results := <-done:
			for _, result := range results {
				assert.Equal(t, model.StatusSucceeded, result.Status)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("targets did not run concurrently")
		}
	})
}

// barrierRunner succeeds only once `parties` invocations have arrived.
type barrierRunner struct {
	arrive  chan struct{}
	parties int
}

func (r *barrierRunner) Run(ctx context.Context, _ steprun.Invocation) error {
	r.arrive <- struct{}{}
	for {
		if len(r.arrive) >= r.parties {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
