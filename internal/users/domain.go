package users

import (
	"time"

	"github.com/akademi-sis/akademi/internal/authz"
)

// Account is an administrative view of a login account.
type Account struct {
	ID          int64
	Email       string
	Role        authz.Role
	TeacherID   int64
	TeacherName string
	StudentID   int64
	StudentName string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Input carries account form fields. Password is plaintext here and is
// hashed before it reaches the repository.
type Input struct {
	Email     string `validate:"required,email"`
	Password  string `validate:"omitempty,min=8"`
	Role      string `validate:"required,oneof=admin teacher student"`
	TeacherID int64
	StudentID int64
}
