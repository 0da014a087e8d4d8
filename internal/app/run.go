package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/specialistvlad/shipgrid/internal/artifact"
	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/matrix"
	"github.com/specialistvlad/shipgrid/internal/model"
	"github.com/specialistvlad/shipgrid/internal/orchestrator"
	"github.com/specialistvlad/shipgrid/internal/release"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// Run executes the main application logic. In one-shot mode it returns the
// run's outcome; in listen mode it serves dispatch webhooks until the
// context is cancelled.
func (a *App) Run(ctx context.Context) (model.Outcome, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		go a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
	}

	if a.config.ListenPort > 0 {
		if err := a.listen(ctx); err != nil {
			return model.OutcomeFailed, err
		}
		return model.OutcomeDone, nil
	}

	return a.runOnce(ctx, model.DispatchEvent{Version: a.config.Version})
}

// runOnce performs one full orchestration for the event.
func (a *App) runOnce(ctx context.Context, event model.DispatchEvent) (model.Outcome, error) {
	logger := ctxlog.FromContext(ctx)

	// Validate the trigger up front so matrix interpolation never sees a
	// malformed version. The driver revalidates as part of its contract.
	rel, err := a.listener.Receive(event)
	if err != nil {
		return model.OutcomeFailed, err
	}

	matrixModel, err := a.loader.Load(ctx, a.config.MatrixPath, config.Vars{
		Version: rel.Version,
		Tag:     rel.Tag(),
	})
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("failed to load matrix: %w", err)
	}

	store, err := a.buildStore(ctx, matrixModel.Storage)
	if err != nil {
		return model.OutcomeFailed, fmt.Errorf("failed to build artifact store: %w", err)
	}

	client, err := a.buildClient(matrixModel.Release)
	if err != nil {
		return model.OutcomeFailed, err
	}

	driver := orchestrator.New(orchestrator.Config{
		Listener: a.listener,
		Executor: matrix.New(matrix.Config{
			Registry:       a.registry,
			Workers:        a.config.Workers,
			BaseDir:        a.config.ArtifactsDir,
			WorkDir:        a.config.WorkDir,
			DefaultTimeout: a.config.TaskTimeout,
			Metrics:        a.metrics,
		}),
		Collector: artifact.NewCollector(a.config.ArtifactsDir, store),
		Aggregator: release.New(release.Config{
			Client:       client,
			AllowUpdates: a.config.AllowUpdates && matrixModel.Release.AllowUpdates,
			Metrics:      a.metrics,
		}),
		Targets: matrixModel.Targets,
		Draft:   a.config.Draft && matrixModel.Release.Draft,
	})

	report, err := driver.Run(ctx, event)
	if report != nil {
		report.WriteText(a.outW)
	}
	if err != nil {
		logger.Error("Run ended with fatal error.", "error", err)
		return model.OutcomeFailed, err
	}
	return report.Outcome, nil
}

// listen serves the dispatch webhook, one orchestration per event.
func (a *App) listen(ctx context.Context) error {
	webhook := trigger.NewWebhook(a.listener, func(r *http.Request, rel trigger.ValidatedRelease) error {
		runCtx := ctxlog.WithLogger(r.Context(), a.logger)
		outcome, err := a.runOnce(runCtx, model.DispatchEvent{Version: rel.Version})
		if err != nil {
			return err
		}
		if outcome != model.OutcomeDone {
			return fmt.Errorf("run finished %s", outcome)
		}
		return nil
	})

	return a.serveWebhook(ctx, webhook)
}
