package model

// ReleaseRecord mirrors the release host's record for one tag. It outlives
// any single run: repeated runs against the same tag converge on one record
// whose asset set is the union of every successfully collected bundle.
type ReleaseRecord struct {
	// ID is the host-assigned identifier, used for update calls.
	ID string `json:"id"`

	// Tag keys the record. It equals the dispatched version, verbatim.
	Tag string `json:"tag"`

	// Draft stays true for the record's whole lifetime as far as this
	// system is concerned; only an external actor promotes a release.
	Draft bool `json:"draft"`

	// ETag is the host's optimistic-concurrency token for the record
	// revision this copy was read from.
	ETag string `json:"etag"`

	// Assets is the merged artifact set.
	Assets []ArtifactBundle `json:"assets"`
}

// Clone returns a deep copy so callers can merge locally without touching
// a shared record.
func (r *ReleaseRecord) Clone() *ReleaseRecord {
	c := *r
	c.Assets = make([]ArtifactBundle, len(r.Assets))
	copy(c.Assets, r.Assets)
	return &c
}
