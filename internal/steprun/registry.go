package steprun

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/shipgrid/internal/config"
)

// ErrUnknownStepKind means a step's shape matched no registered runner.
var ErrUnknownStepKind = errors.New("unknown step kind")

// Invocation carries everything a runner needs to execute one step.
type Invocation struct {
	Step config.Step

	// OutputDir is the target's artifact namespace for this run. Archive
	// steps write bundles here; command steps see it as
	// SHIPGRID_OUTPUT_DIR.
	OutputDir string

	// WorkDir is the working directory for command steps and the root for
	// archive source patterns.
	WorkDir string

	// Env is the fully materialized environment for command steps.
	Env []string
}

// Runner executes a single step to completion or failure.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// StepError wraps a runner failure with the identity of the failing step.
type StepError struct {
	Step string
	Err  error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Registry maps step kinds to runners.
type Registry struct {
	runners map[string]Runner
}

// NewRegistry creates a registry with the built-in runners registered.
func NewRegistry() *Registry {
	r := &Registry{runners: make(map[string]Runner)}
	r.Register(config.StepKindCommand, &CommandRunner{})
	r.Register(config.StepKindArchive, &ArchiveRunner{})
	return r
}

// Register adds or replaces the runner for a step kind.
func (r *Registry) Register(kind string, runner Runner) {
	r.runners[kind] = runner
}

// For resolves the runner responsible for the given step.
func (r *Registry) For(step config.Step) (Runner, error) {
	kind := step.Kind()
	runner, ok := r.runners[kind]
	if kind == "" || !ok {
		return nil, fmt.Errorf("%w: step %q", ErrUnknownStepKind, step.Name)
	}
	return runner, nil
}

// Run dispatches the invocation's step to its runner and wraps any
// failure in a StepError carrying the step name.
func (r *Registry) Run(ctx context.Context, inv Invocation) error {
	runner, err := r.For(inv.Step)
	if err != nil {
		return &StepError{Step: inv.Step.Name, Err: err}
	}
	if err := runner.Run(ctx, inv); err != nil {
		return &StepError{Step: inv.Step.Name, Err: err}
	}
	return nil
}
