package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeRecovery
	TypeRunFinished
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published on every supervisor state transition.
type StateChangedEvent struct {
	RunID      string    `json:"run_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Transition int       `json:"transition"` // 1-based count of transitions in this run
	Timestamp  time.Time `json:"timestamp"`
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// RecoveryEvent reports one device recovery attempt.
type RecoveryEvent struct {
	RunID     string    `json:"run_id"`
	Attempt   int       `json:"attempt"`
	Cause     string    `json:"cause"` // pipeline status that triggered recovery
	Succeeded bool      `json:"succeeded"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Type returns the event type identifier for RecoveryEvent.
func (e RecoveryEvent) Type() uint32 { return TypeRecovery }

// RunFinishedEvent is published once the supervisor has closed the pipeline.
type RunFinishedEvent struct {
	RunID       string        `json:"run_id"`
	Variant     string        `json:"variant"`
	Outcome     string        `json:"outcome"` // "success" or an error kind
	Error       string        `json:"error,omitempty"`
	Recoveries  int           `json:"recoveries"`  // recovery events published before this one
	Transitions int           `json:"transitions"` // state events published before this one
	Duration    time.Duration `json:"duration"`
	Timestamp   time.Time     `json:"timestamp"`
}

// Type returns the event type identifier for RunFinishedEvent.
func (e RunFinishedEvent) Type() uint32 { return TypeRunFinished }
