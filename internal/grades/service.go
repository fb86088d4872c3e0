package grades

import (
	"context"
	"errors"
	"strconv"

	"github.com/akademi-sis/akademi/internal/authz"
	"github.com/akademi-sis/akademi/internal/shared"
)

var (
	// ErrTermNotOpen is returned when scores are submitted against a
	// closed or locked term.
	ErrTermNotOpen = errors.New("term is not open for grade entry")
	// ErrInvalidScore covers scores outside the 0-100 range.
	ErrInvalidScore = errors.New("score must be between 0 and 100")
)

// Service wraps grading business rules.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) Terms(ctx context.Context) ([]Term, error) {
	return s.repo.Terms(ctx)
}

func (s *Service) Term(ctx context.Context, id int64) (Term, error) {
	if id <= 0 {
		return Term{}, shared.ErrNotFound
	}
	return s.repo.Term(ctx, id)
}

// CurrentTerm returns the most recent OPEN term, or the newest term when
// none is open.
func (s *Service) CurrentTerm(ctx context.Context) (Term, error) {
	terms, err := s.repo.Terms(ctx)
	if err != nil {
		return Term{}, err
	}
	if len(terms) == 0 {
		return Term{}, shared.ErrNotFound
	}
	for _, t := range terms {
		if t.Status == shared.TermStatusOpen {
			return t, nil
		}
	}
	return terms[0], nil
}

// TransitionTerm moves a term through its status lifecycle. Only admins
// reach this path; the override flag lets them reopen a locked term.
func (s *Service) TransitionTerm(ctx context.Context, p authz.Principal, termID int64, target string, override bool) error {
	term, err := s.repo.Term(ctx, termID)
	if err != nil {
		return err
	}
	if err := shared.ValidateTermTransition(term.Status, target, override); err != nil {
		return err
	}
	if err := s.repo.SetTermStatus(ctx, termID, target); err != nil {
		return err
	}
	s.record(ctx, p, "term.transition", termID)
	return nil
}

// ForClass loads the class roster with scores for a term.
func (s *Service) ForClass(ctx context.Context, classID, termID int64) ([]Grade, error) {
	if classID <= 0 || termID <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.ForClass(ctx, classID, termID)
}

// ForStudent returns a student's own scores across terms.
func (s *Service) ForStudent(ctx context.Context, studentID int64) ([]Grade, error) {
	if studentID <= 0 {
		return nil, shared.ErrNotFound
	}
	return s.repo.ForStudent(ctx, studentID)
}

// Save validates and upserts one score record. The term must be OPEN.
func (s *Service) Save(ctx context.Context, p authz.Principal, grade Grade) error {
	if grade.ClassID <= 0 || grade.StudentID <= 0 || grade.TermID <= 0 {
		return shared.ErrNotFound
	}
	if grade.Score < 0 || grade.Score > 100 {
		return ErrInvalidScore
	}
	term, err := s.repo.Term(ctx, grade.TermID)
	if err != nil {
		return err
	}
	if term.Status != shared.TermStatusOpen {
		return ErrTermNotOpen
	}
	if err := s.repo.Upsert(ctx, grade); err != nil {
		return err
	}
	s.record(ctx, p, "grade.save", grade.ClassID)
	return nil
}

func (s *Service) Delete(ctx context.Context, p authz.Principal, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, "grade.delete", id)
	return nil
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, id int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.UserID,
		Action:   action,
		Entity:   "grade",
		EntityID: strconv.FormatInt(id, 10),
	})
}
