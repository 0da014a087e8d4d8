package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/shipgrid/internal/config"
	"github.com/specialistvlad/shipgrid/internal/model"
)

// recordingStore remembers every published key so tests can assert the
// namespace layout without hitting real storage.
type recordingStore struct {
	keys []string
}

func (s *recordingStore) Publish(_ context.Context, key string, srcPath string) (string, error) {
	s.keys = append(s.keys, key)
	return "ref://" + key, nil
}

func seedNamespace(t *testing.T, baseDir string, runID uuid.UUID, target config.Target, names ...string) {
	t.Helper()
	ns := Namespace(baseDir, runID, target)
	require.NoError(t, os.MkdirAll(ns, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(ns, name), []byte(name), 0o644))
	}
}

func TestCollectorCollect(t *testing.T) {
	t.Parallel()

	runID := uuid.New()
	linux := config.Target{Platform: "linux", Arch: "amd64", Artifacts: []string{"*.zip"}}

	t.Run("publishes every matched bundle", func(t *testing.T) {
		baseDir := t.TempDir()
		seedNamespace(t, baseDir, runID, linux, "app-linux-amd64.zip", "debug-linux-amd64.zip")

		store := &recordingStore{}
		collector := NewCollector(baseDir, store)

		bundles, err := collector.Collect(context.Background(), &model.BuildResult{
			RunID:  runID,
			Target: linux,
			Status: model.StatusSucceeded,
		})
		require.NoError(t, err)
		require.Len(t, bundles, 2)

		var names []string
		for _, b := range bundles {
			names = append(names, b.Name)
			assert.Contains(t, b.ContentRef, runID.String())
		}
		assert.ElementsMatch(t, []string{"app-linux-amd64.zip", "debug-linux-amd64.zip"}, names)
		assert.Contains(t, store.keys, runID.String()+"/linux-amd64/app-linux-amd64.zip")
	})

	t.Run("failed tasks contribute nothing", func(t *testing.T) {
		collector := NewCollector(t.TempDir(), &recordingStore{})
		bundles, err := collector.Collect(context.Background(), &model.BuildResult{
			RunID:  runID,
			Target: linux,
			Status: model.StatusFailed,
		})
		require.NoError(t, err)
		assert.Empty(t, bundles)
	})

	t.Run("unmatched pattern is a missing artifact", func(t *testing.T) {
		baseDir := t.TempDir()
		seedNamespace(t, baseDir, runID, linux) // namespace exists but is empty

		collector := NewCollector(baseDir, &recordingStore{})
		_, err := collector.Collect(context.Background(), &model.BuildResult{
			RunID:  runID,
			Target: linux,
			Status: model.StatusSucceeded,
		})
		require.ErrorIs(t, err, ErrMissingArtifact)
	})

	t.Run("two patterns resolving the same file is a duplicate bundle", func(t *testing.T) {
		target := config.Target{Platform: "linux", Arch: "amd64", Artifacts: []string{"*.zip", "app-*"}}
		baseDir := t.TempDir()
		seedNamespace(t, baseDir, runID, target, "app-linux.zip")

		collector := NewCollector(baseDir, &recordingStore{})
		_, err := collector.Collect(context.Background(), &model.BuildResult{
			RunID:  runID,
			Target: target,
			Status: model.StatusSucceeded,
		})
		require.ErrorIs(t, err, ErrDuplicateBundle)
	})
}

func TestFSStore(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "app.zip")
	require.NoError(t, os.WriteFile(src, []byte("zip"), 0o644))

	ref, err := NewFSStore().Publish(context.Background(), "run/linux-amd64/app.zip", src)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(ref))
	assert.FileExists(t, ref)
}

func TestNamespaceLayout(t *testing.T) {
	t.Parallel()

	runID := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	target := config.Target{Platform: "windows", Arch: "arm64"}

	ns := Namespace("dist", runID, target)
	assert.Equal(t, filepath.Join("dist", runID.String(), "windows-arm64"), ns)

	key := Key(runID, target, "app.zip")
	assert.Equal(t, runID.String()+"/windows-arm64/app.zip", key)
}
