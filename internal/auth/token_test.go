package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/akademi-sis/akademi/internal/authz"
)

var tokenEpoch = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

func newTestTokens(secret string, now time.Time) *Tokens {
	return NewTokens(TokenConfig{
		Secret: []byte(secret),
		Issuer: "akademi-test",
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := newTestTokens("topsecret", tokenEpoch)
	user := &User{ID: 7, Role: authz.RoleTeacher, TeacherID: 2, IsActive: true}

	raw, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p, err := tokens.Authenticate(raw)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != 7 || p.Role != authz.RoleTeacher || p.TeacherID != 2 {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestTokensExpiredEvenWithValidSignature(t *testing.T) {
	issuer := newTestTokens("topsecret", tokenEpoch)
	raw, err := issuer.Issue(&User{ID: 7, Role: authz.RoleStudent, StudentID: 9})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Same secret, clock two hours past issuance: the signature still
	// verifies, only the expiry is violated.
	verifier := newTestTokens("topsecret", tokenEpoch.Add(2*time.Hour))
	if _, err := verifier.Authenticate(raw); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("got %v, want ErrExpiredToken", err)
	}
}

func TestTokensBadSignature(t *testing.T) {
	issuer := newTestTokens("topsecret", tokenEpoch)
	raw, err := issuer.Issue(&User{ID: 7, Role: authz.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier := newTestTokens("othersecret", tokenEpoch)
	if _, err := verifier.Authenticate(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokensGarbageInput(t *testing.T) {
	tokens := newTestTokens("topsecret", tokenEpoch)
	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := tokens.Authenticate(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Authenticate(%q) = %v, want ErrInvalidToken", raw, err)
		}
	}
}
