package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique constraint was violated.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidCredentials indicates login failure. Every login failure
	// path collapses to this value so callers cannot distinguish an
	// unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// userSafe lists errors whose message may be shown to end users verbatim.
var userSafe = []error{
	ErrNotFound,
	ErrDuplicate,
	ErrInvalidCredentials,
	ErrCSRFTokenMissing,
	ErrCSRFTokenMismatch,
}

// UserSafeMessage returns an error message suitable for display. Internal
// errors collapse to a generic message so storage details never leak.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, safe := range userSafe {
		if errors.Is(err, safe) {
			return err.Error()
		}
	}
	return "something went wrong, please try again"
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation, optionally matching a specific constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
