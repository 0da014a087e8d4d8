package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBundles(t *testing.T) {
	t.Parallel()

	a := ArtifactBundle{Name: "A.zip", ContentRef: "/run1/A.zip"}
	b := ArtifactBundle{Name: "B.zip", ContentRef: "/run1/B.zip"}

	t.Run("appends new names in input order", func(t *testing.T) {
		merged := MergeBundles(nil, []ArtifactBundle{a, b})
		require.Len(t, merged, 2)
		assert.Equal(t, a, merged[0])
		assert.Equal(t, b, merged[1])
	})

	t.Run("replaces same-named bundle in place", func(t *testing.T) {
		replacement := ArtifactBundle{Name: "A.zip", ContentRef: "/run2/A.zip"}
		merged := MergeBundles([]ArtifactBundle{a, b}, []ArtifactBundle{replacement})
		require.Len(t, merged, 2)
		assert.Equal(t, replacement, merged[0])
		assert.Equal(t, b, merged[1])
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := MergeBundles([]ArtifactBundle{a}, []ArtifactBundle{b})
		twice := MergeBundles(once, []ArtifactBundle{b})
		assert.Equal(t, once, twice)
	})

	t.Run("disjoint merges commute", func(t *testing.T) {
		ab := MergeBundles(MergeBundles(nil, []ArtifactBundle{a}), []ArtifactBundle{b})
		ba := MergeBundles(MergeBundles(nil, []ArtifactBundle{b}), []ArtifactBundle{a})
		assert.ElementsMatch(t, ab, ba)
	})

	t.Run("does not mutate the existing slice", func(t *testing.T) {
		existing := []ArtifactBundle{a}
		_ = MergeBundles(existing, []ArtifactBundle{{Name: "A.zip", ContentRef: "/other"}})
		assert.Equal(t, "/run1/A.zip", existing[0].ContentRef)
	})
}
