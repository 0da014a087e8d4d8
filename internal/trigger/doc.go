// Package trigger validates inbound dispatch events and exposes an
// optional HTTP webhook that feeds validated events into the
// orchestration driver. Validation has no side effects; an invalid
// trigger is fatal and never retried.
package trigger
