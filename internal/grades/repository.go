package grades

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/shared"
)

// Repository provides PostgreSQL backed persistence for grades and terms.
type Repository interface {
	Terms(ctx context.Context) ([]Term, error)
	Term(ctx context.Context, id int64) (Term, error)
	SetTermStatus(ctx context.Context, id int64, status string) error
	ForClass(ctx context.Context, classID, termID int64) ([]Grade, error)
	ForStudent(ctx context.Context, studentID int64) ([]Grade, error)
	Upsert(ctx context.Context, grade Grade) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Terms(ctx context.Context) ([]Term, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, status FROM terms ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []Term
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.ID, &t.Name, &t.Status); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

func (r *repository) Term(ctx context.Context, id int64) (Term, error) {
	var t Term
	err := r.pool.QueryRow(ctx, `SELECT id, name, status FROM terms WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Term{}, shared.ErrNotFound
		}
		return Term{}, err
	}
	return t, nil
}

func (r *repository) SetTermStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE terms SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ForClass(ctx context.Context, classID, termID int64) ([]Grade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(g.id, 0), s.id, s.number, s.name, COALESCE(g.subject, ''), COALESCE(g.score, 0), g.id IS NOT NULL
		FROM class_students cs
		JOIN students s ON s.id = cs.student_id
		LEFT JOIN grades g ON g.class_id = cs.class_id AND g.student_id = s.id AND g.term_id = $2
		WHERE cs.class_id = $1
		ORDER BY s.name, g.subject`, classID, termID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Grade
	for rows.Next() {
		g := Grade{ClassID: classID, TermID: termID}
		var scored bool
		if err := rows.Scan(&g.ID, &g.StudentID, &g.Number, &g.StudentName, &g.Subject, &g.Score, &scored); err != nil {
			return nil, err
		}
		if scored {
			g.Letter = Letter(g.Score)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *repository) ForStudent(ctx context.Context, studentID int64) ([]Grade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.class_id, c.name, g.term_id, t.name, g.subject, g.score, g.updated_at
		FROM grades g
		JOIN classes c ON c.id = g.class_id
		JOIN terms t ON t.id = g.term_id
		WHERE g.student_id = $1
		ORDER BY g.term_id DESC, c.name, g.subject`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Grade
	for rows.Next() {
		g := Grade{StudentID: studentID}
		if err := rows.Scan(&g.ID, &g.ClassID, &g.ClassName, &g.TermID, &g.TermName, &g.Subject, &g.Score, &g.UpdatedAt); err != nil {
			return nil, err
		}
		g.Letter = Letter(g.Score)
		result = append(result, g)
	}
	return result, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, grade Grade) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO grades (class_id, student_id, term_id, subject, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (class_id, student_id, term_id, subject)
		DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()`,
		grade.ClassID, grade.StudentID, grade.TermID, grade.Subject, grade.Score)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
