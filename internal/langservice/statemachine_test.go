package langservice

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateMachineFollowsDiagram(t *testing.T) {
	sm := NewStateMachine()
	require.Equal(t, Connected, sm.CurrentState())

	var transitions [][2]State
	sm.AddStateChangeHandler(func(from, to State) {
		transitions = append(transitions, [2]State{from, to})
	})

	sm.TransitionTo(ConnectionInterrupted)
	require.Equal(t, ConnectionInterrupted, sm.CurrentState())

	sm.TransitionTo(SemanticFunctionalityDisabled)
	require.Equal(t, SemanticFunctionalityDisabled, sm.CurrentState())

	sm.TransitionTo(Connected)
	require.Equal(t, Connected, sm.CurrentState())

	require.Equal(t, [][2]State{
		{Connected, ConnectionInterrupted},
		{ConnectionInterrupted, SemanticFunctionalityDisabled},
		{SemanticFunctionalityDisabled, Connected},
	}, transitions)
}

func TestStateMachineRejectsInvalidTransition(t *testing.T) {
	sm := NewStateMachine()
	called := false
	sm.AddStateChangeHandler(func(from, to State) { called = true })

	// Connected -> SemanticFunctionalityDisabled skips ConnectionInterrupted.
	sm.TransitionTo(SemanticFunctionalityDisabled)
	require.Equal(t, Connected, sm.CurrentState())
	require.False(t, called)
}

func TestStateMachineConnectionInterruptedCanReturnDirectlyToConnected(t *testing.T) {
	sm := NewStateMachine()
	sm.TransitionTo(ConnectionInterrupted)
	sm.TransitionTo(Connected)
	require.Equal(t, Connected, sm.CurrentState())
}
