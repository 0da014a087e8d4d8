// Package orchestrator sequences one release run end to end: validate the
// dispatch trigger, fan the matrix out, collect artifact bundles, and
// aggregate them into the release record with a single batched upsert.
// Only the driver observes the full result set; task-level failures are
// captured in results, never thrown across task boundaries, and the
// driver alone decides the run's terminal state.
package orchestrator
