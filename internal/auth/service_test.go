package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

type stubRepo struct {
	users map[string]*User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func (s *stubRepo) PurgeExpiredSessions(ctx context.Context) (int64, error) { return 0, nil }

func newTestService(t *testing.T, users map[string]*User) *Service {
	t.Helper()
	tokens := newTestTokens("topsecret", tokenEpoch)
	return NewService(&stubRepo{users: users}, tokens)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hashed)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService(t, map[string]*User{
		"teacher@school.test": {
			ID:           2,
			Email:        "teacher@school.test",
			PasswordHash: hashPassword(t, "correcthorse"),
			Role:         authz.RoleTeacher,
			TeacherID:    2,
			IsActive:     true,
		},
		"gone@school.test": {
			ID:           5,
			Email:        "gone@school.test",
			PasswordHash: hashPassword(t, "correcthorse"),
			Role:         authz.RoleStudent,
			StudentID:    9,
			IsActive:     false,
		},
	})

	ctx := context.Background()
	cases := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@school.test", "correcthorse"},
		{"wrong password", "teacher@school.test", "wrongpassword"},
		{"inactive account", "gone@school.test", "correcthorse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Fatalf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestUnknownEmailPathComparesRealHash(t *testing.T) {
	// The unknown-email branch pads with a bcrypt comparison against
	// dummyHash so its cost matches the wrong-password branch. The pad
	// only works if dummyHash is a valid hash.
	if err := bcrypt.CompareHashAndPassword(dummyHash, []byte("akademi")); err != nil {
		t.Fatalf("dummy hash is not a comparable bcrypt hash: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword(dummyHash, []byte("not-the-seed")); err == nil {
		t.Fatal("dummy hash matched an arbitrary password")
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := newTestService(t, map[string]*User{
		"teacher@school.test": {
			ID:           2,
			Email:        "teacher@school.test",
			PasswordHash: hashPassword(t, "correcthorse"),
			Role:         authz.RoleTeacher,
			TeacherID:    2,
			IsActive:     true,
		},
	})

	token, err := svc.Login(context.Background(), "teacher@school.test", "correcthorse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := svc.AuthenticateToken(token)
	if err != nil {
		t.Fatalf("authenticate token: %v", err)
	}
	if p.UserID != 2 || p.Role != authz.RoleTeacher || p.TeacherID != 2 {
		t.Fatalf("principal mismatch: %+v", p)
	}
}
