package langservice

import "github.com/sasha-s/go-deadlock"

// StateMachine implements the connected -> connectionInterrupted ->
// semanticFunctionalityDisabled -> connected cycle a backend instance moves
// through, and fans transitions out to registered handlers. A backend
// embeds this instead of DefaultUnimplemented's CurrentState/
// AddStateChangeHandler stubs when it actually tracks connection health.
type StateMachine struct {
	mu       deadlock.Mutex
	state    State
	handlers []StateChangeHandler
}

// NewStateMachine creates a machine starting in Connected.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: Connected}
}

func (m *StateMachine) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) AddStateChangeHandler(fn StateChangeHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, fn)
}

// TransitionTo moves the machine to next, invoking handlers with (from, to).
// Invalid transitions (not in the diagram in SPEC_FULL.md §4.5) are ignored.
func (m *StateMachine) TransitionTo(next State) {
	m.mu.Lock()
	from := m.state
	if !validTransition(from, next) {
		m.mu.Unlock()
		return
	}
	m.state = next
	handlers := make([]StateChangeHandler, len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	for _, h := range handlers {
		h(from, next)
	}
}

func validTransition(from, to State) bool {
	switch from {
	case Connected:
		return to == ConnectionInterrupted
	case ConnectionInterrupted:
		return to == SemanticFunctionalityDisabled || to == Connected
	case SemanticFunctionalityDisabled:
		return to == Connected
	default:
		return false
	}
}
