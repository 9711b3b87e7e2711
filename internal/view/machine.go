// Package view tracks which of the four table views is active and owns the
// create/edit form session handoff. One Machine exists per mounted table
// instance; it is reset whenever the backing model identity changes.
package view

import "sync"

// State is one of the four table views.
type State string

const (
	StateOverview  State = "overview"
	StateAnalytics State = "analytics"
	StateCreate    State = "create"
	StateEdit      State = "edit"
)

// Machine is the four-state navigation controller. The previous view is a
// single slot, not a stack: going back twice from anywhere lands on overview
// and stays there.
type Machine struct {
	mu       sync.Mutex
	current  State
	previous State
	editID   string
	sessions *SessionRegistry
}

// NewMachine creates a machine at overview with an empty form session slot.
func NewMachine() *Machine {
	return &Machine{
		current:  StateOverview,
		previous: StateOverview,
		sessions: NewSessionRegistry(),
	}
}

// Current returns the active view.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// EditingID returns the row id being edited, empty outside the edit view.
func (m *Machine) EditingID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editID
}

// Sessions exposes the form-session registry owned by this machine.
func (m *Machine) Sessions() *SessionRegistry { return m.sessions }

// GoToCreate enters the create view from anywhere, clearing any editing id
// and recording the previous view.
func (m *Machine) GoToCreate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previous = m.current
	m.current = StateCreate
	m.editID = ""
}

// GoToEdit enters the edit view for the given row id. The caller looks the
// row up in its loaded page; an id absent from that page is the caller's
// problem, the machine transitions regardless.
func (m *Machine) GoToEdit(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previous = m.current
	m.current = StateEdit
	m.editID = id
}

// GoToOverview returns to the overview, clearing selection state.
func (m *Machine) GoToOverview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previous = m.current
	m.current = StateOverview
	m.editID = ""
}

// GoToAnalytics switches to the analytics view. Only meaningful from
// overview; other states ignore it.
func (m *Machine) GoToAnalytics() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != StateOverview {
		return
	}
	m.previous = m.current
	m.current = StateAnalytics
}

// GoBack returns to the previous view. A previous view of create or edit is
// never restored — those sessions are gone — so it resolves to overview.
// Repeated calls at overview are idempotent.
func (m *Machine) GoBack() {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := m.previous
	if target == StateCreate || target == StateEdit {
		target = StateOverview
	}
	m.previous = StateOverview
	m.current = target
	m.editID = ""
}

// Reset forces the machine back to overview and clears the form session.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.current = StateOverview
	m.previous = StateOverview
	m.editID = ""
	m.mu.Unlock()
	m.sessions.clear()
}
