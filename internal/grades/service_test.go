package grades

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

type stubRepo struct {
	terms  map[int64]Term
	saved  []Grade
	status map[int64]string
}

func newStubRepo(terms ...Term) *stubRepo {
	r := &stubRepo{terms: make(map[int64]Term), status: make(map[int64]string)}
	for _, t := range terms {
		r.terms[t.ID] = t
	}
	return r
}

func (r *stubRepo) Terms(context.Context) ([]Term, error) {
	var out []Term
	for _, t := range r.terms {
		out = append(out, t)
	}
	return out, nil
}

func (r *stubRepo) Term(_ context.Context, id int64) (Term, error) {
	t, ok := r.terms[id]
	if !ok {
		return Term{}, shared.ErrNotFound
	}
	return t, nil
}

func (r *stubRepo) SetTermStatus(_ context.Context, id int64, status string) error {
	t, ok := r.terms[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	r.terms[id] = t
	r.status[id] = status
	return nil
}

func (r *stubRepo) ForClass(context.Context, int64, int64) ([]Grade, error) { return nil, nil }

func (r *stubRepo) ForStudent(context.Context, int64) ([]Grade, error) { return nil, nil }

func (r *stubRepo) Upsert(_ context.Context, g Grade) error {
	r.saved = append(r.saved, g)
	return nil
}

func (r *stubRepo) Delete(context.Context, int64) error { return nil }

var teacher = authz.Principal{UserID: 2, Role: authz.RoleTeacher, TeacherID: 2}

func TestSaveRequiresOpenTerm(t *testing.T) {
	repo := newStubRepo(
		Term{ID: 1, Name: "2025/2026 Odd", Status: shared.TermStatusLocked},
		Term{ID: 2, Name: "2025/2026 Even", Status: shared.TermStatusOpen},
	)
	svc := NewService(repo, nil)

	err := svc.Save(context.Background(), teacher, Grade{ClassID: 5, StudentID: 9, TermID: 1, Subject: "Math", Score: 88})
	assert.ErrorIs(t, err, ErrTermNotOpen)
	assert.Empty(t, repo.saved)

	err = svc.Save(context.Background(), teacher, Grade{ClassID: 5, StudentID: 9, TermID: 2, Subject: "Math", Score: 88})
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)
}

func TestSaveRejectsOutOfRangeScore(t *testing.T) {
	repo := newStubRepo(Term{ID: 2, Status: shared.TermStatusOpen})
	svc := NewService(repo, nil)

	for _, score := range []float64{-1, 100.5} {
		err := svc.Save(context.Background(), teacher, Grade{ClassID: 5, StudentID: 9, TermID: 2, Subject: "Math", Score: score})
		assert.ErrorIs(t, err, ErrInvalidScore, "score %.1f", score)
	}
}

func TestTransitionTermLifecycle(t *testing.T) {
	repo := newStubRepo(Term{ID: 1, Status: shared.TermStatusOpen})
	svc := NewService(repo, nil)
	admin := authz.Principal{UserID: 1, Role: authz.RoleAdmin}

	require.NoError(t, svc.TransitionTerm(context.Background(), admin, 1, shared.TermStatusLocked, false))
	assert.Equal(t, shared.TermStatusLocked, repo.status[1])

	// reopening a locked term needs the override flag
	err := svc.TransitionTerm(context.Background(), admin, 1, shared.TermStatusClosed, false)
	assert.ErrorIs(t, err, shared.ErrInvalidTermTransition)
	require.NoError(t, svc.TransitionTerm(context.Background(), admin, 1, shared.TermStatusClosed, true))
}
