// Package model holds the run-time domain types shared across the
// application: the inbound dispatch event, per-target build results,
// artifact bundles, and the release record kept on the remote host.
// The types carry no behavior beyond small pure helpers so every other
// package can depend on them without cycles.
package model
