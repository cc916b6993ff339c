package domain

import (
	"encoding/json"
	"fmt"
)

// CriteriaState is the lifecycle stage of a criteria search.
type CriteriaState string

const (
	StateNotStarted           CriteriaState = "not_started"
	StateCollecting           CriteriaState = "collecting"
	StateAwaitingConfirmation CriteriaState = "awaiting_confirmation"
	StateQuerying             CriteriaState = "querying"
	StateCompleted            CriteriaState = "completed"
)

// Valid reports whether s is one of the five known states.
func (s CriteriaState) Valid() bool {
	switch s {
	case StateNotStarted, StateCollecting, StateAwaitingConfirmation, StateQuerying, StateCompleted:
		return true
	}
	return false
}

// CriteriaMachine holds the lifecycle of one criteria search.
// Every transition is a no-op when its precondition does not hold.
// The zero value is in StateNotStarted.
type CriteriaMachine struct {
	state CriteriaState
}

// NewCriteriaMachine returns a machine in StateNotStarted.
func NewCriteriaMachine() CriteriaMachine {
	return CriteriaMachine{state: StateNotStarted}
}

// State returns the current state.
func (m *CriteriaMachine) State() CriteriaState {
	if m.state == "" {
		return StateNotStarted
	}
	return m.state
}

// Start moves NOT_STARTED to COLLECTING.
func (m *CriteriaMachine) Start() {
	if m.IsNotStarted() {
		m.state = StateCollecting
	}
}

// CollectedAll moves any state to AWAITING_CONFIRMATION.
func (m *CriteriaMachine) CollectedAll() {
	m.state = StateAwaitingConfirmation
}

// ConfirmYes moves AWAITING_CONFIRMATION to QUERYING.
func (m *CriteriaMachine) ConfirmYes() {
	if m.IsAwaitingConfirmation() {
		m.state = StateQuerying
	}
}

// ConfirmNo moves AWAITING_CONFIRMATION back to COLLECTING.
func (m *CriteriaMachine) ConfirmNo() {
	if m.IsAwaitingConfirmation() {
		m.state = StateCollecting
	}
}

// Finish moves QUERYING to COMPLETED.
func (m *CriteriaMachine) Finish() {
	if m.IsQuerying() {
		m.state = StateCompleted
	}
}

// Reset moves any state to NOT_STARTED.
func (m *CriteriaMachine) Reset() {
	m.state = StateNotStarted
}

func (m *CriteriaMachine) IsNotStarted() bool           { return m.State() == StateNotStarted }
func (m *CriteriaMachine) IsCollecting() bool           { return m.State() == StateCollecting }
func (m *CriteriaMachine) IsAwaitingConfirmation() bool { return m.State() == StateAwaitingConfirmation }
func (m *CriteriaMachine) IsQuerying() bool             { return m.State() == StateQuerying }
func (m *CriteriaMachine) IsCompleted() bool            { return m.State() == StateCompleted }

func (m CriteriaMachine) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.State())
}

func (m *CriteriaMachine) UnmarshalJSON(data []byte) error {
	var s CriteriaState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		s = StateNotStarted
	}
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	m.state = s
	return nil
}
