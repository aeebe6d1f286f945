// Package fsm defines the interview session status machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateSetup   State = "setup"
	StateActive  State = "active"
	StateDebrief State = "debrief"
)

const (
	// EventBegin starts the interview once questions are available.
	EventBegin Event = "begin"
	// EventComplete finishes the last turn and enters the debrief.
	EventComplete Event = "complete"
	// EventAbort bails out of an active session back to setup.
	EventAbort Event = "abort"
	// EventReset discards a finished session and returns to setup.
	EventReset Event = "reset"
)

// Transition applies one event to the current state. Per-turn progression
// (recording toggles, mid-session submissions) happens inside StateActive
// and is not modeled as an event.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateSetup:
		switch event {
		case EventBegin:
			return StateActive, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateActive:
		switch event {
		case EventComplete:
			return StateDebrief, nil
		case EventAbort:
			return StateSetup, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDebrief:
		switch event {
		case EventReset:
			return StateSetup, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
