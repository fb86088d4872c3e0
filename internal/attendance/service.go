package attendance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// ErrUnknownStatus is returned when a submitted mark carries a status
// outside the accepted set.
var ErrUnknownStatus = errors.New("unknown attendance status")

// Service wraps attendance business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Sheet loads the class roster with marks for the given date.
func (s *Service) Sheet(ctx context.Context, classID int64, date time.Time) ([]Entry, error) {
	if classID <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.Sheet(ctx, classID, date)
}

// SaveSheet validates and stores submitted marks. Entries with an empty
// status are skipped so a partially filled sheet saves what it has.
func (s *Service) SaveSheet(ctx context.Context, p authz.Principal, classID int64, date time.Time, marks map[int64]Entry) error {
	if classID <= 0 {
		return shared.ErrNotFound
	}
	filtered := make(map[int64]Entry, len(marks))
	for studentID, mark := range marks {
		if mark.Status == "" {
			continue
		}
		if !KnownStatus(mark.Status) {
			return ErrUnknownStatus
		}
		filtered[studentID] = mark
	}
	if len(filtered) == 0 {
		return nil
	}
	if err := s.repo.SaveSheet(ctx, classID, date, filtered); err != nil {
		return err
	}
	s.record(ctx, p, "attendance.save", classID)
	return nil
}

// ForStudent returns the student's own marks for a date range.
func (s *Service) ForStudent(ctx context.Context, studentID int64, from, to time.Time) ([]Entry, error) {
	if studentID <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.ForStudent(ctx, studentID, from, to)
}

// DailyRecap aggregates marks across the school for one day.
func (s *Service) DailyRecap(ctx context.Context, date time.Time) (Recap, error) {
	return s.repo.CountByStatus(ctx, date)
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, classID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "attendance",
		EntityID: strconv.FormatInt(classID, 10),
	})
}
