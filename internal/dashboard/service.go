package dashboard

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Service builds role-scoped landing snapshots. Results are cached per
// role scope; concurrent builds for the same key collapse into one.
type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

// NewService constructs a Service.
func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AdminStats returns the school-wide snapshot for today.
func (s *Service) AdminStats(ctx context.Context) (Stats, error) {
	today := truncateToDay(time.Now())
	key, err := s.cache.Key(ctx, "dashboard", "admin", today.Format("2006-01-02"))
	if err != nil {
		return Stats{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var stats Stats
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.repo.AdminStats(ctx, today)
		})
		return stats, err
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

// TeacherStats returns the snapshot for one teacher's classes.
func (s *Service) TeacherStats(ctx context.Context, p authz.Principal) (TeacherStats, error) {
	if p.TeacherID == 0 {
		return TeacherStats{}, shared.ErrNotFound
	}
	today := truncateToDay(time.Now())
	key, err := s.cache.Key(ctx, "dashboard", "teacher", strconv.FormatInt(p.TeacherID, 10), today.Format("2006-01-02"))
	if err != nil {
		return TeacherStats{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var stats TeacherStats
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.repo.TeacherStats(ctx, p.TeacherID, today)
		})
		return stats, err
	})
	if err != nil {
		return TeacherStats{}, err
	}
	return v.(TeacherStats), nil
}

// StudentStats returns the snapshot for one student.
func (s *Service) StudentStats(ctx context.Context, p authz.Principal) (StudentStats, error) {
	if p.StudentID == 0 {
		return StudentStats{}, shared.ErrNotFound
	}
	key, err := s.cache.Key(ctx, "dashboard", "student", strconv.FormatInt(p.StudentID, 10))
	if err != nil {
		return StudentStats{}, err
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var stats StudentStats
		err := s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (any, error) {
			return s.repo.StudentStats(ctx, p.StudentID)
		})
		return stats, err
	})
	if err != nil {
		return StudentStats{}, err
	}
	return v.(StudentStats), nil
}

// Invalidate bumps the cache version after bulk data changes.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
