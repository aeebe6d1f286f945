package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidTransitions(t *testing.T) {
	cases := []struct {
		from  State
		event Event
		to    State
	}{
		{StateSetup, EventBegin, StateActive},
		{StateActive, EventComplete, StateDebrief},
		{StateActive, EventAbort, StateSetup},
		{StateDebrief, EventReset, StateSetup},
	}

	for _, tc := range cases {
		next, err := Transition(tc.from, tc.event)
		require.NoError(t, err, "%s --(%s)-->", tc.from, tc.event)
		require.Equal(t, tc.to, next)
	}
}

func TestInvalidTransitionsKeepState(t *testing.T) {
	cases := []struct {
		from  State
		event Event
	}{
		{StateSetup, EventComplete},
		{StateSetup, EventReset},
		{StateActive, EventBegin},
		{StateActive, EventReset},
		{StateDebrief, EventBegin},
		{StateDebrief, EventComplete},
		{StateDebrief, EventAbort},
	}

	for _, tc := range cases {
		next, err := Transition(tc.from, tc.event)
		require.Error(t, err, "%s --(%s)-->", tc.from, tc.event)
		require.Equal(t, tc.from, next)
	}
}

func TestUnknownState(t *testing.T) {
	_, err := Transition(State("limbo"), EventBegin)
	require.ErrorContains(t, err, "unknown state")
}
