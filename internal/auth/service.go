package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *Tokens
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// dummyHash is compared against on the unknown-email path so that path
// costs the same bcrypt work as a real comparison and login timing does
// not reveal whether the email exists.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("akademi"), bcrypt.DefaultCost)

// Authenticate validates email/password credentials. Unknown email, wrong
// password, and inactive account all return the same ErrInvalidCredentials
// so callers cannot enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login exchanges credentials for a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(user)
}

// AuthenticateToken verifies a bearer token and returns its principal.
func (s *Service) AuthenticateToken(raw string) (authz.Principal, error) {
	return s.tokens.Authenticate(raw)
}

// ResolveUser loads the account for a cookie-session user ID. Called once
// per request so role and record links are always current.
func (s *Service) ResolveUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

// RegisterSession persists session metadata in postgres for auditing.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
