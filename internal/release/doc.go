// Package release talks to the remote release host and owns the
// idempotent create-or-update path for a tag's release record. All writers
// go through Aggregator.Upsert, a read-merge-write loop protected by the
// host's ETag optimistic-concurrency check: transient host errors are
// retried with bounded exponential backoff, conflicting concurrent writers
// are resolved by re-reading and re-merging, never by overwriting.
package release
