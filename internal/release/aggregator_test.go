package release

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/shipgrid/internal/model"
)

// newTestAggregator builds an aggregator with retry knobs tightened so the
// failure-path tests finish quickly.
func newTestAggregator(client Client, allowUpdates bool) *Aggregator {
	return New(Config{
		Client:         client,
		AllowUpdates:   allowUpdates,
		InitialBackoff: time.Millisecond,
		MaxElapsed:     200 * time.Millisecond,
	})
}

func bundles(names ...string) []model.ArtifactBundle {
	out := make([]model.ArtifactBundle, 0, len(names))
	for _, name := range names {
		out = append(out, model.ArtifactBundle{Name: name, ContentRef: "ref://" + name})
	}
	return out
}

func assetNames(rec *model.ReleaseRecord) []string {
	names := make([]string, 0, len(rec.Assets))
	for _, a := range rec.Assets {
		names = append(names, a.Name)
	}
	return names
}

func TestAggregatorUpsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates a fresh draft release with its bundles", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		rec, created, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip", "B.zip"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, rec.Draft)
		assert.ElementsMatch(t, []string{"A.zip", "B.zip"}, assetNames(rec))
	})

	t.Run("repeating an upsert changes nothing", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		first, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		second, created, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.Assets, second.Assets)
	})

	t.Run("same-named bundle is replaced, others kept", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("X.zip", "keep.zip"))
		require.NoError(t, err)

		rerun := []model.ArtifactBundle{
			{Name: "X.zip", ContentRef: "ref://rerun/X.zip"},
			{Name: "Y.zip", ContentRef: "ref://rerun/Y.zip"},
		}
		rec, created, err := agg.Upsert(ctx, "v2.1.0", true, rerun)
		require.NoError(t, err)
		assert.False(t, created)
		assert.ElementsMatch(t, []string{"X.zip", "keep.zip", "Y.zip"}, assetNames(rec))
		for _, a := range rec.Assets {
			if a.Name == "X.zip" {
				assert.Equal(t, "ref://rerun/X.zip", a.ContentRef)
			}
		}
	})

	t.Run("draft flag is only sent on create", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		rec, _, err := agg.Upsert(ctx, "v2.1.0", false, bundles("B.zip"))
		require.NoError(t, err)
		assert.True(t, rec.Draft, "merging must never flip an existing draft flag")
	})

	t.Run("empty contribution returns the record untouched", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		rec, created, err := agg.Upsert(ctx, "v2.1.0", true, nil)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, []string{"A.zip"}, assetNames(rec))
	})

	t.Run("concurrent disjoint upserts converge on the union", func(t *testing.T) {
		client := NewInMemoryClient()

		const writers = 8
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				agg := newTestAggregator(client, true)
				_, _, errs[i] = agg.Upsert(ctx, "v2.1.0", true, bundles(fmt.Sprintf("part-%d.zip", i)))
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "writer %d", i)
		}

		rec := client.Snapshot("v2.1.0")
		require.NotNil(t, rec)
		want := make([]string, 0, writers)
		for i := 0; i < writers; i++ {
			want = append(want, fmt.Sprintf("part-%d.zip", i))
		}
		assert.ElementsMatch(t, want, assetNames(rec))
	})

	t.Run("transient outages are retried until the host recovers", func(t *testing.T) {
		client := NewInMemoryClient()
		client.FailNextCalls(2)
		agg := newTestAggregator(client, true)

		rec, created, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, []string{"A.zip"}, assetNames(rec))
	})

	t.Run("a persistent outage is fatal", func(t *testing.T) {
		client := NewInMemoryClient()
		client.FailNextCalls(1000)
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.ErrorIs(t, err, ErrAggregationFatal)
	})

	t.Run("a lost merge race is re-read and re-merged", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		client.ConflictNextUpdates(2)
		rec, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("B.zip"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"A.zip", "B.zip"}, assetNames(rec))
	})

	t.Run("exhausting the conflict budget is fatal", func(t *testing.T) {
		client := NewInMemoryClient()
		agg := newTestAggregator(client, true)

		_, _, err := agg.Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		client.ConflictNextUpdates(100)
		_, _, err = agg.Upsert(ctx, "v2.1.0", true, bundles("B.zip"))
		require.ErrorIs(t, err, ErrAggregationFatal)
	})

	t.Run("existing release is fatal when updates are disallowed", func(t *testing.T) {
		client := NewInMemoryClient()

		_, _, err := newTestAggregator(client, true).Upsert(ctx, "v2.1.0", true, bundles("A.zip"))
		require.NoError(t, err)

		_, _, err = newTestAggregator(client, false).Upsert(ctx, "v2.1.0", true, bundles("B.zip"))
		require.ErrorIs(t, err, ErrReleaseExists)

		rec := client.Snapshot("v2.1.0")
		assert.Equal(t, []string{"A.zip"}, assetNames(rec), "rejected upsert must not touch the record")
	})

	t.Run("creation races resolve to one record", func(t *testing.T) {
		client := NewInMemoryClient()

		const writers = 4
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				agg := newTestAggregator(client, true)
				_, _, errs[i] = agg.Upsert(ctx, "v2.1.0", true, bundles(fmt.Sprintf("racer-%d.zip", i)))
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "writer %d", i)
		}
		rec := client.Snapshot("v2.1.0")
		require.NotNil(t, rec)
		assert.Len(t, rec.Assets, writers)
	})
}
