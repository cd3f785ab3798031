package machine

type callbacks struct {
	stateChanged []func(from, to State)
}

// AddStateCallback registers f to be called on every state transition.
// Callbacks run synchronously on the goroutine that changes the state.
func (m *M) AddStateCallback(f func(from, to State)) {
	m.stateChanged = append(m.stateChanged, f)
}

func (m *M) callStateCallbacks(from, to State) {
	for _, f := range m.stateChanged {
		f(from, to)
	}
}
