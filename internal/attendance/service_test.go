package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademi-sis/akademi/internal/authz"
)

type stubRepo struct {
	saved map[int64]Entry
}

func (s *stubRepo) Sheet(context.Context, int64, time.Time) ([]Entry, error) { return nil, nil }

func (s *stubRepo) SaveSheet(_ context.Context, _ int64, _ time.Time, marks map[int64]Entry) error {
	s.saved = marks
	return nil
}

func (s *stubRepo) ForStudent(context.Context, int64, time.Time, time.Time) ([]Entry, error) {
	return nil, nil
}

func (s *stubRepo) CountByStatus(context.Context, time.Time) (Recap, error) { return Recap{}, nil }

func TestSaveSheetRejectsUnknownStatus(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	err := svc.SaveSheet(context.Background(), authz.Principal{UserID: 1, Role: authz.RoleTeacher}, 5, time.Now(), map[int64]Entry{
		7: {StudentID: 7, Status: "vacationing"},
	})

	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Nil(t, repo.saved)
}

func TestSaveSheetSkipsUnmarkedStudents(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	err := svc.SaveSheet(context.Background(), authz.Principal{UserID: 1, Role: authz.RoleTeacher}, 5, time.Now(), map[int64]Entry{
		7: {StudentID: 7, Status: StatusPresent},
		8: {StudentID: 8, Status: ""},
		9: {StudentID: 9, Status: StatusLate, Note: "bus delay"},
	})

	require.NoError(t, err)
	require.Len(t, repo.saved, 2)
	assert.Equal(t, StatusPresent, repo.saved[7].Status)
	assert.Equal(t, "bus delay", repo.saved[9].Note)
}

func TestSaveSheetNoMarksIsNoop(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, nil)

	err := svc.SaveSheet(context.Background(), authz.Principal{UserID: 1, Role: authz.RoleTeacher}, 5, time.Now(), map[int64]Entry{})

	require.NoError(t, err)
	assert.Nil(t, repo.saved)
}
