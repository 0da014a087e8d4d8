package release

import (
	"context"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// Client is the release host contract. Implementations must report
// failures through the package sentinels so the aggregator can classify
// them: ErrNotFound, ErrConflict, ErrRemoteUnavailable.
type Client interface {
	// FindReleaseByTag returns the current record for the tag, including
	// its ETag, or ErrNotFound.
	FindReleaseByTag(ctx context.Context, tag string) (*model.ReleaseRecord, error)

	// CreateRelease creates a fresh record for the tag with an empty asset
	// set. A concurrent creation for the same tag surfaces as ErrConflict.
	CreateRelease(ctx context.Context, tag string, draft bool) (*model.ReleaseRecord, error)

	// AddOrReplaceAssets merges assets into the record identified by
	// rec.ID, conditional on rec.ETag. The host replaces same-named assets
	// and appends new ones; it never removes existing assets and never
	// changes the draft flag. Returns the updated record.
	AddOrReplaceAssets(ctx context.Context, rec *model.ReleaseRecord, assets []model.ArtifactBundle) (*model.ReleaseRecord, error)
}
