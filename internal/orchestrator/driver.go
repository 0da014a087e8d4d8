package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/artifact"
	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/matrix"
	"github.com/specialistvlad/shipgrid/internal/model"
	"github.com/specialistvlad/shipgrid/internal/release"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// Config wires a Driver.
type Config struct {
	Listener   *trigger.Listener
	Executor   *matrix.Executor
	Collector  *artifact.Collector
	Aggregator *release.Aggregator

	// Targets is the static build matrix, fixed at startup.
	Targets []config.Target

	// Draft is passed through to release creation.
	Draft bool
}

// Driver runs one orchestration at a time.
type Driver struct {
	listener   *trigger.Listener
	executor   *matrix.Executor
	collector  *artifact.Collector
	aggregator *release.Aggregator
	targets    []config.Target
	draft      bool

	mu    sync.RWMutex
	state State
}

// New creates a Driver in the Idle state.
func New(cfg Config) *Driver {
	return &Driver{
		listener:   cfg.Listener,
		executor:   cfg.Executor,
		collector:  cfg.Collector,
		aggregator: cfg.Aggregator,
		targets:    cfg.Targets,
		draft:      cfg.Draft,
		state:      StateIdle,
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Driver) setState(ctx context.Context, s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Run state changed.", "state", string(s))
}

// Run executes one orchestration for the given dispatch event and returns
// the structured report. The report is non-nil whenever the trigger
// validated; its Outcome is authoritative for the process exit code. The
// error carries the fatal cause when the outcome is OutcomeFailed.
func (d *Driver) Run(ctx context.Context, event model.DispatchEvent) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	rel, err := d.listener.Receive(event)
	if err != nil {
		d.setState(ctx, StateFailed)
		return nil, err
	}
	d.setState(ctx, StateDispatched)

	runID := uuid.New()
	logger = logger.With("run_id", runID.String(), "tag", rel.Tag())
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("Run dispatched.", "version", rel.Version, "targets", len(d.targets))

	d.setState(ctx, StateBuilding)
	results := d.executor.Execute(ctx, rel, runID, d.targets)

	d.setState(ctx, StateCollecting)
	bundles := d.collect(ctx, results)

	report := newReport(runID, rel.Tag(), results)

	if len(bundles) == 0 {
		// No target produced anything to release; total failure.
		d.setState(ctx, StateFailed)
		report.Outcome = model.OutcomeFailed
		return report, fmt.Errorf("no target succeeded for tag %q", rel.Tag())
	}

	d.setState(ctx, StateAggregating)
	rec, created, err := d.aggregator.Upsert(ctx, rel.Tag(), d.draft, bundles)
	if err != nil {
		d.setState(ctx, StateFailed)
		report.Outcome = model.OutcomeFailed
		return report, err
	}
	report.Release = &ReleaseSummary{
		Tag:           rec.Tag,
		Created:       created,
		Draft:         rec.Draft,
		ArtifactCount: len(rec.Assets),
	}

	if anyFailed(results) {
		d.setState(ctx, StatePartiallyFailed)
		report.Outcome = model.OutcomePartiallyFailed
	} else {
		d.setState(ctx, StateDone)
		report.Outcome = model.OutcomeDone
	}

	logger.Info("Run finished.",
		"outcome", string(report.Outcome),
		"release_created", created,
		"release_assets", len(rec.Assets),
	)
	return report, nil
}

// collect resolves bundles for every successful result, escalating
// collection failures (missing artifacts, ambiguous names) onto the
// affected target. One aggregation batch is returned for the whole run to
// minimize update races; bundle names are checked for uniqueness across
// targets before batching.
func (d *Driver) collect(ctx context.Context, results []model.BuildResult) []model.ArtifactBundle {
	logger := ctxlog.FromContext(ctx)

	seen := make(map[string]string) // bundle name → target ID
	var batch []model.ArtifactBundle

	for i := range results {
		result := &results[i]

		bundles, err := d.collector.Collect(ctx, result)
		if err != nil {
			logger.Error("Artifact collection failed.", "target", result.Target.ID(), "error", err)
			result.Status = model.StatusFailed
			result.ErrorDetail = err.Error()
			continue
		}

		escalated := false
		for _, b := range bundles {
			if owner, dup := seen[b.Name]; dup {
				logger.Error("Ambiguous bundle name across targets.",
					"name", b.Name, "target", result.Target.ID(), "owner", owner)
				result.Status = model.StatusFailed
				result.ErrorDetail = fmt.Sprintf("bundle %q already produced by target %s", b.Name, owner)
				escalated = true
				break
			}
		}
		if escalated {
			continue
		}

		for _, b := range bundles {
			seen[b.Name] = result.Target.ID()
		}
		result.Bundles = bundles
		batch = append(batch, bundles...)
	}

	return batch
}

func anyFailed(results []model.BuildResult) bool {
	for i := range results {
		if results[i].Failed() {
			return true
		}
	}
	return false
}
