package model

// ArtifactBundle is one named build output. Names are the merge key on the
// release host and must be unique within a run; ContentRef is an opaque
// handle (filesystem path or object-store URL) to the bundle's bytes.
type ArtifactBundle struct {
	Name       string `json:"name"`
	ContentRef string `json:"content_ref"`
}

// MergeBundles merges incoming bundles into an existing set using the
// bundle name as the key. A bundle whose name is already present replaces
// the prior entry in place; new names are appended in input order. The
// existing slice is never mutated.
//
// The operation is idempotent, and commutative and associative for inputs
// with disjoint names, so repeated or re-ordered application converges on
// the same set.
func MergeBundles(existing, incoming []ArtifactBundle) []ArtifactBundle {
	merged := make([]ArtifactBundle, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, b := range merged {
		index[b.Name] = i
	}

	for _, b := range incoming {
		if i, ok := index[b.Name]; ok {
			merged[i] = b
			continue
		}
		index[b.Name] = len(merged)
		merged = append(merged, b)
	}
	return merged
}
