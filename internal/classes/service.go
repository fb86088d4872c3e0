package classes

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Service wraps class business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns classes visible to the principal: admins see everything,
// teachers see their own classes.
func (s *Service) List(ctx context.Context, p authz.Principal, filters shared.ListFilters) ([]Class, int, error) {
	var teacherScope int64
	if p.Role == authz.RoleTeacher {
		teacherScope = p.TeacherID
		if teacherScope == 0 {
			return nil, 0, nil
		}
	}
	return s.repo.List(ctx, filters, teacherScope)
}

func (s *Service) Get(ctx context.Context, id int64) (Class, error) {
	if id <= 0 {
		return Class{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Members(ctx context.Context, id int64) ([]Member, error) {
	return s.repo.Members(ctx, id)
}

func (s *Service) Create(ctx context.Context, p authz.Principal, class Class) (Class, error) {
	if err := validate(class); err != nil {
		return Class{}, err
	}
	created, err := s.repo.Create(ctx, class)
	if err != nil {
		return Class{}, err
	}
	s.record(ctx, p, "class.create", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, p authz.Principal, id int64, class Class) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := validate(class); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, class); err != nil {
		return err
	}
	s.record(ctx, p, "class.update", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, p authz.Principal, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, "class.delete", id)
	return nil
}

func (s *Service) Enroll(ctx context.Context, p authz.Principal, classID, studentID int64) error {
	if classID <= 0 || studentID <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Enroll(ctx, classID, studentID); err != nil {
		return err
	}
	s.record(ctx, p, "class.enroll", classID)
	return nil
}

func (s *Service) Withdraw(ctx context.Context, p authz.Principal, classID, studentID int64) error {
	if classID <= 0 || studentID <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Withdraw(ctx, classID, studentID); err != nil {
		return err
	}
	s.record(ctx, p, "class.withdraw", classID)
	return nil
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "class",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func validate(c Class) error {
	if strings.TrimSpace(c.Code) == "" {
		return errors.New("class code is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("class name is required")
	}
	return nil
}
