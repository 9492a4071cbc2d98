package lifecycle

import "fmt"

// State is a lifecycle state. Transitions only move forward:
// Configuring → Running → (ReloadInProgress → Running)* → ShuttingDown → Terminated.
type State int32

const (
	// Configuring accepts hook registration and runs the initial load.
	Configuring State = iota

	// Running executes bodies and consumes actions.
	Running

	// ReloadInProgress is held for exactly one reload cycle.
	ReloadInProgress

	// ShuttingDown cancels bodies and runs terminate hooks.
	ShuttingDown

	// Terminated is final.
	Terminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case ReloadInProgress:
		return "reload_in_progress"
	case ShuttingDown:
		return "shutting_down"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// States lists every state in transition order.
func States() []State {
	return []State{Configuring, Running, ReloadInProgress, ShuttingDown, Terminated}
}
