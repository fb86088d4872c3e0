package shared

import "errors"

// Academic term statuses. Grade entry is only accepted while the term is
// OPEN; LOCKED terms are frozen for reporting.
const (
	TermStatusOpen   = "OPEN"
	TermStatusClosed = "CLOSED"
	TermStatusLocked = "LOCKED"
)

// ErrInvalidTermTransition indicates a status change that is not allowed.
var ErrInvalidTermTransition = errors.New("term transition invalid")

// ValidateTermTransition checks term status transitions. Reopening a locked
// term requires an admin override.
func ValidateTermTransition(current, target string, hasOverride bool) error {
	if current == target {
		return nil
	}
	switch current {
	case TermStatusOpen:
		if target == TermStatusClosed || target == TermStatusLocked {
			return nil
		}
	case TermStatusClosed:
		if target == TermStatusOpen || target == TermStatusLocked {
			return nil
		}
	case TermStatusLocked:
		if target == TermStatusClosed && hasOverride {
			return nil
		}
	}
	return ErrInvalidTermTransition
}
