package artifact

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/specialistvlad/shipgrid/internal/ctxlog"
	"github.com/specialistvlad/shipgrid/internal/model"
)

// Collection failure modes. Both escalate the target to failed downstream;
// a release must never silently ship without a declared bundle.
var (
	// ErrMissingArtifact means a declared pattern matched nothing for a
	// successful build.
	ErrMissingArtifact = errors.New("missing artifact")

	// ErrDuplicateBundle means two files resolved to the same bundle name,
	// which would make the release merge ambiguous.
	ErrDuplicateBundle = errors.New("duplicate bundle name")
)

// Collector resolves a completed task's declared output patterns into
// concrete artifact bundles and publishes them to the store.
type Collector struct {
	baseDir string
	store   Store
}

// NewCollector creates a Collector rooted at the artifacts directory.
func NewCollector(baseDir string, store Store) *Collector {
	return &Collector{baseDir: baseDir, store: store}
}

// Collect returns the bundles produced by one build result. Failed tasks
// contribute nothing and return an empty set with no error. For a
// successful task, every declared pattern must match at least one file.
func (c *Collector) Collect(ctx context.Context, result *model.BuildResult) ([]model.ArtifactBundle, error) {
	if result.Failed() {
		return nil, nil
	}

	logger := ctxlog.FromContext(ctx)
	ns := Namespace(c.baseDir, result.RunID, result.Target)

	seen := make(map[string]bool)
	var bundles []model.ArtifactBundle

	for _, pattern := range result.Target.Artifacts {
		matches, err := filepath.Glob(filepath.Join(ns, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid artifact pattern %q for target %s: %w", pattern, result.Target.ID(), err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: pattern %q matched nothing for target %s", ErrMissingArtifact, pattern, result.Target.ID())
		}

		for _, match := range matches {
			name := filepath.Base(match)
			if seen[name] {
				return nil, fmt.Errorf("%w: %q resolved twice for target %s", ErrDuplicateBundle, name, result.Target.ID())
			}
			seen[name] = true

			ref, err := c.store.Publish(ctx, Key(result.RunID, result.Target, name), match)
			if err != nil {
				return nil, fmt.Errorf("failed to publish bundle %q: %w", name, err)
			}
			bundles = append(bundles, model.ArtifactBundle{Name: name, ContentRef: ref})
		}
	}

	logger.Debug("Collected artifact bundles.", "target", result.Target.ID(), "count", len(bundles))
	return bundles, nil
}
