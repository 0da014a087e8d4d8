package release

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// InMemoryClient is a Client backed by process memory. It powers dry runs
// and tests, and enforces the same ETag discipline as the real host so the
// aggregator's conflict path is exercised for real under concurrency.
type InMemoryClient struct {
	mu       sync.Mutex
	releases map[string]*memRelease

	// unavailable, when positive, fails that many subsequent calls with
	// ErrRemoteUnavailable before recovering. For tests and dry-run drills.
	unavailable atomic.Int32

	// conflicts, when positive, fails that many AddOrReplaceAssets calls
	// with ErrConflict regardless of ETag.
	conflicts atomic.Int32
}

type memRelease struct {
	rec      model.ReleaseRecord
	revision int
}

// NewInMemoryClient creates an empty in-memory release host.
func NewInMemoryClient() *InMemoryClient {
	return &InMemoryClient{releases: make(map[string]*memRelease)}
}

// FailNextCalls makes the next n calls fail with ErrRemoteUnavailable.
func (c *InMemoryClient) FailNextCalls(n int) {
	c.unavailable.Store(int32(n))
}

// ConflictNextUpdates makes the next n asset merges fail with ErrConflict.
func (c *InMemoryClient) ConflictNextUpdates(n int) {
	c.conflicts.Store(int32(n))
}

func (c *InMemoryClient) checkAvailable() error {
	if c.unavailable.Add(-1) >= 0 {
		return fmt.Errorf("%w: injected outage", ErrRemoteUnavailable)
	}
	return nil
}

// FindReleaseByTag implements the Client interface.
func (c *InMemoryClient) FindReleaseByTag(_ context.Context, tag string) (*model.ReleaseRecord, error) {
	if err := c.checkAvailable(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.releases[tag]
	if !ok {
		return nil, fmt.Errorf("%w: tag %q", ErrNotFound, tag)
	}
	return c.snapshot(stored), nil
}

// CreateRelease implements the Client interface.
func (c *InMemoryClient) CreateRelease(_ context.Context, tag string, draft bool) (*model.ReleaseRecord, error) {
	if err := c.checkAvailable(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.releases[tag]; ok {
		return nil, fmt.Errorf("%w: tag %q already created", ErrConflict, tag)
	}

	stored := &memRelease{
		rec: model.ReleaseRecord{
			ID:    uuid.NewString(),
			Tag:   tag,
			Draft: draft,
		},
		revision: 1,
	}
	c.releases[tag] = stored
	return c.snapshot(stored), nil
}

// AddOrReplaceAssets implements the Client interface.
func (c *InMemoryClient) AddOrReplaceAssets(_ context.Context, rec *model.ReleaseRecord, assets []model.ArtifactBundle) (*model.ReleaseRecord, error) {
	if err := c.checkAvailable(); err != nil {
		return nil, err
	}
	if c.conflicts.Add(-1) >= 0 {
		return nil, fmt.Errorf("%w: injected race", ErrConflict)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.lookupByID(rec.ID)
	if stored == nil {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, rec.ID)
	}
	if rec.ETag != etag(stored.revision) {
		return nil, fmt.Errorf("%w: stale etag %q", ErrConflict, rec.ETag)
	}

	stored.rec.Assets = model.MergeBundles(stored.rec.Assets, assets)
	stored.revision++
	return c.snapshot(stored), nil
}

// Snapshot returns a copy of the stored record for a tag, or nil. Test and
// reporting helper; not part of the Client contract.
func (c *InMemoryClient) Snapshot(tag string) *model.ReleaseRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored, ok := c.releases[tag]
	if !ok {
		return nil
	}
	return c.snapshot(stored)
}

func (c *InMemoryClient) lookupByID(id string) *memRelease {
	for _, stored := range c.releases {
		if stored.rec.ID == id {
			return stored
		}
	}
	return nil
}

// snapshot copies the stored record with its current ETag. Callers must
// hold the mutex.
func (c *InMemoryClient) snapshot(stored *memRelease) *model.ReleaseRecord {
	rec := stored.rec.Clone()
	rec.ETag = etag(stored.revision)
	return rec
}

func etag(revision int) string {
	return fmt.Sprintf("rev-%d", revision)
}
