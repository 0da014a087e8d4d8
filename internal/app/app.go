package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specialistvlad/shipgrid/internal/artifact"
	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/metrics"
	"github.com/specialistvlad/shipgrid/internal/release"
	"github.com/specialistvlad/shipgrid/internal/steprun"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	listener *trigger.Listener
	registry *steprun.Registry
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, metrics registry
// and step runner registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	promReg := prometheus.NewRegistry()

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		listener: trigger.NewListener(),
		registry: steprun.NewRegistry(),
		promReg:  promReg,
		metrics:  metrics.New(promReg),
	}
}

// Registry returns the application's step runner registry. This is
// primarily for testing.
func (a *App) Registry() *steprun.Registry {
	return a.registry
}

// buildStore selects the artifact store backend from the matrix file.
func (a *App) buildStore(ctx context.Context, cfg config.StorageConfig) (artifact.Store, error) {
	switch cfg.Backend {
	case "s3":
		return artifact.NewS3Store(ctx, cfg.Bucket, cfg.Prefix)
	default:
		return artifact.NewFSStore(), nil
	}
}

// buildClient selects the release host client. Dry runs get an in-memory
// host so the whole aggregation path still executes.
func (a *App) buildClient(releaseCfg config.ReleaseConfig) (release.Client, error) {
	if a.config.DryRun {
		a.logger.Info("Dry run: using in-memory release host.")
		return release.NewInMemoryClient(), nil
	}

	url := a.config.ReleaseURL
	if url == "" {
		url = releaseCfg.URL
	}
	if url == "" {
		return nil, fmt.Errorf("no release host URL configured (flag --release-url or matrix release block)")
	}
	return release.NewHTTPClient(url, a.config.ReleaseToken), nil
}
