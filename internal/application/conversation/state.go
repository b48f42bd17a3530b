// Package conversation drives one registrant through the application form.
//
// The form is an explicit state machine: Transition is a pure function of
// (Config, Session, Event) and the Engine applies its Outcome, owns the
// per-registrant session map and runs the commit when the registrant confirms.
package conversation

import "github.com/alem-hub/applications-bot/internal/domain/registration"

// State is the step a registrant is currently on.
type State int

const (
	StateIdle State = iota
	StateAwaitingName
	StateAwaitingFaculty
	StateAwaitingParticipation
	StateAwaitingPhone
	StateAwaitingCity
	StateAwaitingDocument
	StateAwaitingConfirmation
	StateCommitted
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:                  "idle",
	StateAwaitingName:          "awaiting_name",
	StateAwaitingFaculty:       "awaiting_faculty",
	StateAwaitingParticipation: "awaiting_participation",
	StateAwaitingPhone:         "awaiting_phone",
	StateAwaitingCity:          "awaiting_city",
	StateAwaitingDocument:      "awaiting_document",
	StateAwaitingConfirmation:  "awaiting_confirmation",
	StateCommitted:             "committed",
	StateCancelled:             "cancelled",
}

// String returns the snake_case name used in logs and the session store.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseState is the inverse of String.
func ParseState(name string) (State, bool) {
	for s, n := range stateNames {
		if n == name {
			return s, true
		}
	}
	return StateIdle, false
}

// IsActive reports whether a form is in progress.
func (s State) IsActive() bool {
	return s >= StateAwaitingName && s <= StateAwaitingConfirmation
}

// Session is the per-registrant state held by the engine.
type Session struct {
	State State
	Draft registration.Draft
}
