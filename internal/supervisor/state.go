package supervisor

import (
	"fmt"
	"slices"
)

// State represents the lifecycle state of the supervised pipeline.
type State string

// Supervisor states.
const (
	StateUninitialized State = "uninitialized" // Constructed, Init not called
	StateInitialized   State = "initialized"   // Init succeeded
	StateRunning       State = "running"       // Run step in progress
	StateLost          State = "lost"          // Device lost or failed
	StateRecovering    State = "recovering"    // Device and components being reset
	StateClosed        State = "closed"        // Terminal
)

// transitions lists the states reachable from each state. Every state may
// move to Closed so shutdown is valid from anywhere.
var transitions = map[State][]State{
	StateUninitialized: {StateInitialized, StateClosed},
	StateInitialized:   {StateRunning, StateClosed},
	StateRunning:       {StateLost, StateClosed},
	StateLost:          {StateRecovering, StateClosed},
	StateRecovering:    {StateRunning, StateClosed},
	StateClosed:        {},
}

// CanTransition reports whether from -> to is a valid transition.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// TransitionError is returned when an operation is invoked in a state that
// does not allow it.
type TransitionError struct {
	From State
	To   State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid state transition %s -> %s", e.From, e.To)
}
