package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle        State = "idle"
	StateSpeaking    State = "speaking"
	StateEndFlourish State = "end_flourish"
)

const (
	EventStart    Event = "start"
	EventTick     Event = "tick"
	EventFinish   Event = "finish"
	EventFlourish Event = "flourish"
	EventSettle   Event = "settle"
)

// ErrInvalidTransition marks an event fired outside its valid source state.
var ErrInvalidTransition = errors.New("invalid transition")

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventTick:
			return StateSpeaking, nil
		case EventFinish:
			return StateIdle, nil
		case EventFlourish:
			return StateEndFlourish, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateEndFlourish:
		switch event {
		case EventSettle:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, state, event)
}
