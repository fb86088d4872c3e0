package users

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Notifier delivers account credentials out of band. The asynq mail task
// implements it; a nil notifier just skips delivery.
type Notifier interface {
	NotifyCredentials(ctx context.Context, email, password string) error
}

// Service wraps account administration rules.
type Service struct {
	repo     Repository
	audit    *shared.AuditLogger
	validate *validator.Validate
	notifier Notifier
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, notifier Notifier) *Service {
	return &Service{repo: repo, audit: audit, validate: validator.New(), notifier: notifier}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Account, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Account, error) {
	if id <= 0 {
		return Account{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create registers an account. When no password is supplied one is
// generated and sent to the account's email.
func (s *Service) Create(ctx context.Context, p authz.Principal, input Input) (Account, error) {
	if err := s.validate.Struct(input); err != nil {
		return Account{}, err
	}
	password := input.Password
	generated := false
	if password == "" {
		var err error
		password, err = generatePassword()
		if err != nil {
			return Account{}, err
		}
		generated = true
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, err
	}
	account := Account{
		Email:     input.Email,
		Role:      authz.Role(input.Role),
		TeacherID: input.TeacherID,
		StudentID: input.StudentID,
	}
	created, err := s.repo.Create(ctx, account, string(hash))
	if err != nil {
		return Account{}, err
	}
	s.record(ctx, p, "user.create", created.ID)
	if generated && s.notifier != nil {
		if err := s.notifier.NotifyCredentials(ctx, created.Email, password); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, p authz.Principal, id int64, input Input) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.validate.StructExcept(input, "Password"); err != nil {
		return err
	}
	account := Account{
		Email:     input.Email,
		Role:      authz.Role(input.Role),
		TeacherID: input.TeacherID,
		StudentID: input.StudentID,
	}
	if err := s.repo.Update(ctx, id, account); err != nil {
		return err
	}
	s.record(ctx, p, "user.update", id)
	return nil
}

// SetActive toggles an account. Deactivation also revokes live sessions
// so the account loses access immediately, not at next login.
func (s *Service) SetActive(ctx context.Context, p authz.Principal, id int64, active bool) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	if !active {
		if err := s.repo.DeleteSessionsFor(ctx, id); err != nil {
			return err
		}
	}
	action := "user.activate"
	if !active {
		action = "user.deactivate"
	}
	s.record(ctx, p, action, id)
	return nil
}

// ResetPassword sets a fresh generated password and revokes sessions.
func (s *Service) ResetPassword(ctx context.Context, p authz.Principal, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	password, err := generatePassword()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, id, string(hash)); err != nil {
		return err
	}
	if err := s.repo.DeleteSessionsFor(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, "user.reset_password", id)
	if s.notifier != nil {
		return s.notifier.NotifyCredentials(ctx, account.Email, password)
	}
	return nil
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
