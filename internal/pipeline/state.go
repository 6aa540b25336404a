package pipeline

// State is a phase of a run.
type State int

// Run phases in order. Extracting may jump straight to Finalizing on cancellation.
const (
	StateIdle State = iota
	StateDiscovering
	StateDispatching
	StateExtracting
	StateFinalizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDiscovering:
		return "discovering"
	case StateDispatching:
		return "dispatching"
	case StateExtracting:
		return "extracting"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
