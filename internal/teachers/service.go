package teachers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Service wraps teacher business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Teacher, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Teacher, error) {
	if id <= 0 {
		return Teacher{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) OwnedClasses(ctx context.Context, id int64) ([]OwnedClass, error) {
	return s.repo.OwnedClasses(ctx, id)
}

func (s *Service) Create(ctx context.Context, p authz.Principal, teacher Teacher) (Teacher, error) {
	if err := validate(teacher); err != nil {
		return Teacher{}, err
	}
	created, err := s.repo.Create(ctx, teacher)
	if err != nil {
		return Teacher{}, err
	}
	s.record(ctx, p, "teacher.create", created.ID)
	return created, nil
}

func (s *Service) Update(ctx context.Context, p authz.Principal, id int64, teacher Teacher) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := validate(teacher); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, teacher); err != nil {
		return err
	}
	s.record(ctx, p, "teacher.update", id)
	return nil
}

func (s *Service) Delete(ctx context.Context, p authz.Principal, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, "teacher.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "teacher",
		EntityID: strconv.FormatInt(id, 10),
	})
}

func validate(t Teacher) error {
	if strings.TrimSpace(t.Number) == "" {
		return errors.New("staff number is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("teacher name is required")
	}
	return nil
}
