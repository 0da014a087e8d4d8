package artifact

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/specialistvlad/shipgrid/internal/config"
)

// Namespace returns the output directory for one target within one run.
// Namespaces are disjoint per (run, target), so concurrent tasks never
// share mutable storage.
func Namespace(baseDir string, runID uuid.UUID, target config.Target) string {
	return filepath.Join(baseDir, runID.String(), target.ID())
}

// Key returns the store key for a bundle inside its namespace.
func Key(runID uuid.UUID, target config.Target, name string) string {
	return filepath.ToSlash(filepath.Join(runID.String(), target.ID(), name))
}

// Store publishes collected bundle files to durable storage and returns
// the opaque content reference recorded on the release.
type Store interface {
	Publish(ctx context.Context, key string, srcPath string) (string, error)
}

// FSStore is the default store: bundles already live on the local
// filesystem inside their namespace, so publishing resolves the absolute
// path and uses it as the content reference.
type FSStore struct{}

// NewFSStore creates an FSStore.
func NewFSStore() *FSStore {
	return &FSStore{}
}

// Publish implements the Store interface.
func (s *FSStore) Publish(_ context.Context, _ string, srcPath string) (string, error) {
	return filepath.Abs(srcPath)
}
