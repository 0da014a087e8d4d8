package orchestrator

// State is the driver's position in the run lifecycle.
type State string

// Lifecycle: Idle → Dispatched → Building → Collecting → Aggregating →
// Done | PartiallyFailed | Failed.
const (
	StateIdle            State = "IDLE"
	StateDispatched      State = "DISPATCHED"
	StateBuilding        State = "BUILDING"
	StateCollecting      State = "COLLECTING"
	StateAggregating     State = "AGGREGATING"
	StateDone            State = "DONE"
	StatePartiallyFailed State = "PARTIALLY_FAILED"
	StateFailed          State = "FAILED"
)
