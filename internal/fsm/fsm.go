// Package fsm defines the dictation state machine transition table.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
)

const (
	EventStart  Event = "start"
	EventStop   Event = "stop"
	EventFinish Event = "finish"
	EventReset  Event = "reset"
)

// Transition applies event to current and returns the next state.
// EventReset returns to idle from any state; everything else is explicit.
func Transition(current State, event Event) (State, error) {
	if event == EventReset {
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateTranscribing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateTranscribing:
		switch event {
		case EventFinish:
			return StateIdle, nil
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
