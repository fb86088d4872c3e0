package classes

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/platform/db"
	"github.com/akademi-sis/akademi/internal/shared"
)

// Repository provides PostgreSQL backed persistence for classes.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, teacherID int64) ([]Class, int, error)
	Get(ctx context.Context, id int64) (Class, error)
	Create(ctx context.Context, class Class) (Class, error)
	Update(ctx context.Context, id int64, class Class) error
	Delete(ctx context.Context, id int64) error
	Members(ctx context.Context, id int64) ([]Member, error)
	Enroll(ctx context.Context, classID, studentID int64) error
	Withdraw(ctx context.Context, classID, studentID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// List returns classes matching the filters, restricted to the owning
// teacher when teacherID is non-zero.
func (r *repository) List(ctx context.Context, filters shared.ListFilters, teacherID int64) ([]Class, int, error) {
	query := `
		SELECT c.id, c.code, c.name, COALESCE(c.teacher_id, 0), COALESCE(t.name, ''), c.academic_year
		FROM classes c
		LEFT JOIN teachers t ON t.id = c.teacher_id`
	countQuery := `SELECT COUNT(*) FROM classes c`
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if teacherID != 0 {
		argCount++
		where += ` AND c.teacher_id = $` + strconv.Itoa(argCount)
		args = append(args, teacherID)
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (c.name ILIKE $` + strconv.Itoa(argCount) + ` OR c.code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += where + ` ORDER BY c.name`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filters.Offset())
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.TeacherID, &c.TeacherName, &c.AcademicYear); err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Class, error) {
	var c Class
	err := r.pool.QueryRow(ctx, `
		SELECT c.id, c.code, c.name, COALESCE(c.teacher_id, 0), COALESCE(t.name, ''), c.academic_year, c.created_at, c.updated_at
		FROM classes c
		LEFT JOIN teachers t ON t.id = c.teacher_id
		WHERE c.id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.TeacherID, &c.TeacherName, &c.AcademicYear, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Class{}, shared.ErrNotFound
		}
		return Class{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, class Class) (Class, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO classes (code, name, teacher_id, academic_year, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, 0), $4, NOW(), NOW())
		RETURNING id`,
		class.Code, class.Name, class.TeacherID, class.AcademicYear).
		Scan(&class.ID)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return Class{}, shared.ErrDuplicate
		}
		return Class{}, err
	}
	return class, nil
}

func (r *repository) Update(ctx context.Context, id int64, class Class) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE classes SET code = $1, name = $2, teacher_id = NULLIF($3, 0), academic_year = $4, updated_at = NOW()
		WHERE id = $5`,
		class.Code, class.Name, class.TeacherID, class.AcademicYear, id)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return shared.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a class and its enrollments atomically.
func (r *repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM class_students WHERE class_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func (r *repository) Members(ctx context.Context, id int64) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.number, s.name
		FROM class_students cs
		JOIN students s ON s.id = cs.student_id
		WHERE cs.class_id = $1
		ORDER BY s.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.StudentID, &m.Number, &m.Name); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *repository) Enroll(ctx context.Context, classID, studentID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO class_students (class_id, student_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (class_id, student_id) DO NOTHING`, classID, studentID)
	return err
}

func (r *repository) Withdraw(ctx context.Context, classID, studentID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM class_students WHERE class_id = $1 AND student_id = $2`, classID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
