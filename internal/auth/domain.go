package auth

import (
	"errors"
	"time"

	"github.com/akademi-sis/akademi/internal/authz"
)

// User represents a login account. Teacher and student accounts link 1:1
// to their teacher/student records; the link is zero for admins.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         authz.Role
	TeacherID    int64
	StudentID    int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal builds the request principal for this account. Resolved fresh
// per request, never cached beyond it.
func (u *User) Principal() authz.Principal {
	return authz.Principal{
		UserID:    u.ID,
		Role:      u.Role,
		TeacherID: u.TeacherID,
		StudentID: u.StudentID,
	}
}

var (
	// ErrInvalidToken indicates a malformed token or a bad signature.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates a token past its expiry, signature aside.
	ErrExpiredToken = errors.New("expired token")
)
