package matrix

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/metrics"
	"github.com/specialistvlad/shipgrid/internal/model"
	"github.com/specialistvlad/shipgrid/internal/steprun"
	"github.com/specialistvlad/shipgrid/internal/trigger"
)

// Default configuration values.
const (
	defaultWorkers     = 4
	defaultTaskTimeout = 30 * time.Minute
)

// Config configures an Executor.
type Config struct {
	Registry *steprun.Registry

	// Workers bounds how many targets build concurrently. Default 4.
	Workers int

	// BaseDir is the root of the artifact storage namespace.
	BaseDir string

	// WorkDir is the working directory for command steps. Default ".".
	WorkDir string

	// DefaultTimeout applies to targets that declare none. Default 30m.
	DefaultTimeout time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Executor runs every target of the matrix to a terminal state.
type Executor struct {
	registry       *steprun.Registry
	workers        int
	baseDir        string
	workDir        string
	defaultTimeout time.Duration
	metrics        *metrics.Metrics
}

// New creates an Executor, applying defaults for unset knobs.
func New(cfg Config) *Executor {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = defaultTaskTimeout
	}
	return &Executor{
		registry:       cfg.Registry,
		workers:        cfg.Workers,
		baseDir:        cfg.BaseDir,
		workDir:        cfg.WorkDir,
		defaultTimeout: cfg.DefaultTimeout,
		metrics:        cfg.Metrics,
	}
}

// Execute runs one task per target over a worker pool and returns one
// BuildResult per target, in matrix order. It always returns a result for
// every target: a failure, timeout or cancellation is captured in the
// result, never propagated across task boundaries.
func (e *Executor) Execute(ctx context.Context, release trigger.ValidatedRelease, runID uuid.UUID, targets []config.Target) []model.BuildResult {
	logger := ctxlog.FromContext(ctx)

	readyChan := make(chan int, len(targets))
	for i := range targets {
		readyChan <- i
	}
	close(readyChan)

	workers := e.workers
	if workers > len(targets) {
		workers = len(targets)
	}
	logger.Info("🚀 Starting build matrix.", "targets", len(targets), "workers", workers)

	results := make([]model.BuildResult, len(targets))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(workerID int) {
			defer wg.Done()
			workerLogger := logger.With("workerID", workerID)
			workerLogger.Debug("Worker started.")
			for idx := range readyChan {
				results[idx] = e.runTask(ctxlog.WithLogger(ctx, workerLogger), release, runID, targets[idx])
			}
			workerLogger.Debug("Worker finished.")
		}(w)
	}

	wg.Wait()
	logger.Info("🏁 Build matrix finished.")
	return results
}
