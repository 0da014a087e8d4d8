package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/metrics"
	"github.com/specialistvlad/shipgrid/internal/model"
)

// Default retry policy.
const (
	defaultConflictRetries = 5
	defaultInitialBackoff  = 250 * time.Millisecond
	defaultMaxElapsed      = 30 * time.Second
)

// Config configures an Aggregator.
type Config struct {
	Client Client

	// AllowUpdates permits merging into a pre-existing release. When
	// false, finding an existing record for the tag is fatal.
	AllowUpdates bool

	// ConflictRetries bounds how many times a lost ETag race is resolved
	// by re-reading and re-merging. Default 5.
	ConflictRetries int

	// InitialBackoff and MaxElapsed shape the exponential backoff applied
	// to transient host failures, per call site.
	InitialBackoff time.Duration
	MaxElapsed     time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Aggregator converges any number of concurrent or repeated contributions
// on a single consistent release record per tag.
type Aggregator struct {
	client          Client
	allowUpdates    bool
	conflictRetries int
	initialBackoff  time.Duration
	maxElapsed      time.Duration
	metrics         *metrics.Metrics
}

// New creates an Aggregator, applying defaults for unset retry knobs.
func New(cfg Config) *Aggregator {
	if cfg.ConflictRetries <= 0 {
		cfg.ConflictRetries = defaultConflictRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = defaultMaxElapsed
	}
	return &Aggregator{
		client:          cfg.Client,
		allowUpdates:    cfg.AllowUpdates,
		conflictRetries: cfg.ConflictRetries,
		initialBackoff:  cfg.InitialBackoff,
		maxElapsed:      cfg.MaxElapsed,
		metrics:         cfg.Metrics,
	}
}

// Upsert merges newBundles into the release record for tag, creating the
// record if absent. The merge key is the bundle name: same-named bundles
// are replaced, existing assets are never removed, and the draft flag is
// only ever sent on create. The call is idempotent and safe under
// concurrent invocations with overlapping bundle sets.
//
// The boolean return reports whether this call created the record.
func (a *Aggregator) Upsert(ctx context.Context, tag string, draft bool, newBundles []model.ArtifactBundle) (*model.ReleaseRecord, bool, error) {
	logger := ctxlog.FromContext(ctx).With("tag", tag)

	var lastErr error
	for attempt := 0; attempt <= a.conflictRetries; attempt++ {
		if attempt > 0 {
			a.metrics.IncUpsertRetry()
			logger.Warn("Retrying release merge after conflict.", "attempt", attempt)
		}

		rec, created, err := a.findOrCreate(ctx, tag, draft)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				// Lost a creation race; the record exists now, re-read it.
				lastErr = err
				continue
			}
			return nil, false, err
		}

		if !created && !a.allowUpdates {
			return nil, false, fmt.Errorf("%w: tag %q", ErrReleaseExists, tag)
		}

		if len(newBundles) == 0 {
			return rec, created, nil
		}

		merged, err := a.addAssets(ctx, rec, newBundles)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				// A concurrent writer advanced the record. Local bundles
				// are kept and re-merged against the fresh revision.
				lastErr = err
				continue
			}
			return nil, false, err
		}

		logger.Info("Release record merged.",
			"created", created,
			"merged_bundles", len(newBundles),
			"total_assets", len(merged.Assets),
		)
		return merged, created, nil
	}

	return nil, false, fmt.Errorf("%w: tag %q: %v", ErrAggregationFatal, tag, lastErr)
}

// findOrCreate reads the record for tag or creates a fresh draft one.
func (a *Aggregator) findOrCreate(ctx context.Context, tag string, draft bool) (*model.ReleaseRecord, bool, error) {
	var rec *model.ReleaseRecord
	err := a.retryTransient(ctx, func() error {
		var err error
		rec, err = a.client.FindReleaseByTag(ctx, tag)
		return err
	})
	if err == nil {
		return rec, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	err = a.retryTransient(ctx, func() error {
		var err error
		rec, err = a.client.CreateRelease(ctx, tag, draft)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// addAssets performs one conditional merge against the record's revision.
func (a *Aggregator) addAssets(ctx context.Context, rec *model.ReleaseRecord, bundles []model.ArtifactBundle) (*model.ReleaseRecord, error) {
	var merged *model.ReleaseRecord
	err := a.retryTransient(ctx, func() error {
		var err error
		merged, err = a.client.AddOrReplaceAssets(ctx, rec, bundles)
		return err
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// retryTransient retries op with exponential backoff for as long as it
// fails with ErrRemoteUnavailable. Any other error is permanent.
func (a *Aggregator) retryTransient(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.initialBackoff
	bo.MaxElapsedTime = a.maxElapsed

	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !errors.Is(err, ErrRemoteUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))

	if err != nil && errors.Is(err, ErrRemoteUnavailable) {
		return fmt.Errorf("%w: %v", ErrAggregationFatal, err)
	}
	return err
}
