package broker

import "fmt"

// State is the lifecycle of a single-slot queue.
type State string

const (
	StateIdle      State = "idle"
	StateShowing   State = "showing"
	StateResolving State = "resolving"
)

// Event triggers a State transition.
type Event string

const (
	EventShow    Event = "show"
	EventResolve Event = "resolve"
	EventSettle  Event = "settle"
)

// transitionTable defines all valid state transitions.
// Key: current state → event → new state.
var transitionTable = map[State]map[Event]State{
	StateIdle: {
		EventShow: StateShowing,
	},
	StateShowing: {
		EventResolve: StateResolving,
	},
	StateResolving: {
		EventSettle: StateIdle,
	},
}

// ApplyTransition returns the next state, or an error when event is not
// valid in current.
func ApplyTransition(current State, event Event) (State, error) {
	events, ok := transitionTable[current]
	if !ok {
		return "", fmt.Errorf("no transitions defined for state %q", current)
	}
	next, ok := events[event]
	if !ok {
		return "", fmt.Errorf("invalid transition: %q + %q", current, event)
	}
	return next, nil
}
