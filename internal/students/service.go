package students

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Service wraps student business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns students visible to the principal: admins see everyone,
// teachers only students enrolled in one of their classes.
func (s *Service) List(ctx context.Context, p authz.Principal, filters shared.ListFilters) ([]Student, int, error) {
	var teacherScope int64
	if p.Role == authz.RoleTeacher {
		teacherScope = p.TeacherID
		if teacherScope == 0 {
			return nil, 0, nil
		}
	}
	return s.repo.List(ctx, filters, teacherScope)
}

func (s *Service) Get(ctx context.Context, id int64) (Student, error) {
	if id <= 0 {
		return Student{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Enrollments(ctx context.Context, id int64) ([]Enrollment, error) {
	return s.repo.Enrollments(ctx, id)
}

func (s *Service) Create(ctx context.Context, p authz.Principal, student Student) (Student, error) {
	if err := validate(student); err != nil {
		return Student{}, err
	}
	created, err := s.repo.Create(ctx, student)
	if err != nil {
		return Student{}, err
	}
	s.record(ctx, p, "student.create", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, p authz.Principal, id int64, student Student) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := validate(student); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, student); err != nil {
		return err
	}
	s.record(ctx, p, "student.update", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, p authz.Principal, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, "student.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "student",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func validate(s Student) error {
	if strings.TrimSpace(s.Number) == "" {
		return errors.New("student number is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("student name is required")
	}
	return nil
}
