package appointment

import (
	"fmt"
	"strings"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusCancelled Status = "cancelled"

	// StatusAll is the "no filter" sentinel for ByStatus.
	StatusAll Status = "all"
)

// transitions lists the moves offered from each state. Every state other
// than scheduled is terminal.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusMissed, StatusCancelled},
}

// ParseStatus normalises s and rejects anything outside the four known states.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusScheduled, StatusCompleted, StatusMissed, StatusCancelled:
		return st, nil
	case "":
		return "", apperror.Validation("status is required")
	default:
		return "", apperror.Validation(fmt.Sprintf("unknown appointment status %q", s))
	}
}

// ParseFilterStatus is ParseStatus that also accepts "all" and the empty
// string, both meaning no filter.
func ParseFilterStatus(s string) (Status, error) {
	if strings.TrimSpace(s) == "" || strings.EqualFold(strings.TrimSpace(s), string(StatusAll)) {
		return StatusAll, nil
	}
	return ParseStatus(s)
}

// IsTerminal reports whether no further transition is offered from s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsClosed reports whether s is one of the three outcomes of a scheduled
// appointment. Unknown statuses are neither open nor closed.
func (s Status) IsClosed() bool {
	return s == StatusCompleted || s == StatusMissed || s == StatusCancelled
}

// Transitions returns the target states the UI may offer for s.
func (s Status) Transitions() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// CanTransition reports whether from -> to is a modelled transition.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
