package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateSpeaking, next)

	next, err = Transition(next, EventTick)
	require.NoError(t, err)
	require.Equal(t, StateSpeaking, next)

	next, err = Transition(next, EventFinish)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFlourishPath(t *testing.T) {
	next, err := Transition(StateSpeaking, EventFlourish)
	require.NoError(t, err)
	require.Equal(t, StateEndFlourish, next)

	next, err = Transition(next, EventSettle)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event Event
	}{
		{name: "idle tick", state: StateIdle, event: EventTick},
		{name: "idle finish", state: StateIdle, event: EventFinish},
		{name: "idle flourish", state: StateIdle, event: EventFlourish},
		{name: "idle settle", state: StateIdle, event: EventSettle},
		{name: "speaking start", state: StateSpeaking, event: EventStart},
		{name: "speaking settle", state: StateSpeaking, event: EventSettle},
		{name: "flourish start", state: StateEndFlourish, event: EventStart},
		{name: "flourish tick", state: StateEndFlourish, event: EventTick},
		{name: "flourish finish", state: StateEndFlourish, event: EventFinish},
		{name: "flourish flourish", state: StateEndFlourish, event: EventFlourish},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.state, next)
			require.ErrorIs(t, err, ErrInvalidTransition)
			require.Contains(t, err.Error(), "invalid transition")
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}
