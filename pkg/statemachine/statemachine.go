// Package statemachine provides a small, thread-safe finite state machine
// with a fixed transition table. It exists to make workflow invariants
// mechanically checkable: an operation that is only legal in certain states
// becomes an event with transitions from exactly those states, and firing it
// anywhere else fails with a typed error instead of silently corrupting
// state.
package statemachine

import "sync"

// State is a named state.
type State string

// Event is a named trigger for a state change.
type Event string

// Transition moves the machine from one state to another when an event
// fires.
type Transition struct {
	From  State
	Event Event
	To    State
}

// Machine is a finite state machine over a fixed transition table.
// All methods are safe for concurrent use.
type Machine struct {
	mu      sync.Mutex
	initial State
	current State
	table   map[State]map[Event]State
}

// New builds a machine starting in the initial state. Duplicate (from,
// event) pairs panic: a table where the same event leads two places is a
// programming error, not a runtime condition.
func New(initial State, transitions ...Transition) *Machine {
	table := make(map[State]map[Event]State, len(transitions))
	for _, t := range transitions {
		events, ok := table[t.From]
		if !ok {
			events = make(map[Event]State)
			table[t.From] = events
		}
		if _, exists := events[t.Event]; exists {
			panic("statemachine: duplicate transition for " + string(t.From) + "/" + string(t.Event))
		}
		events[t.Event] = t.To
	}
	return &Machine{initial: initial, current: initial, table: table}
}

// Current returns the state the machine is in.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Fire applies the event and returns the resulting state. If the current
// state has no transition for the event the machine is left untouched and a
// *TransitionError is returned.
func (m *Machine) Fire(event Event) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := m.table[m.current][event]
	if !ok {
		return m.current, &TransitionError{From: m.current, Event: event}
	}
	m.current = to
	return to, nil
}

// Can reports whether the event has a transition from the current state.
func (m *Machine) Can(event Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.table[m.current][event]
	return ok
}

// Reset returns the machine to its initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
