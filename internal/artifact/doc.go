// Package artifact owns the artifact storage contract between build tasks
// and aggregation: the per-run, per-target namespace convention, the
// resolution of declared output patterns into concrete bundles, and the
// Store abstraction that publishes bundle bytes to durable storage
// (local filesystem or S3).
package artifact
