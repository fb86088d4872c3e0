package teachers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/shared"
)

// Repository provides PostgreSQL backed persistence for teachers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Teacher, int, error)
	Get(ctx context.Context, id int64) (Teacher, error)
	Create(ctx context.Context, teacher Teacher) (Teacher, error)
	Update(ctx context.Context, id int64, teacher Teacher) error
	Delete(ctx context.Context, id int64) error
	OwnedClasses(ctx context.Context, id int64) ([]OwnedClass, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Teacher, int, error) {
	query := `SELECT id, number, name, email, subject, is_active FROM teachers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM teachers WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR number ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == "desc" {
		dir = "DESC"
	}
	query += ` ORDER BY name ` + dir
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

	var result []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.Number, &t.Name, &t.Email, &t.Subject, &t.IsActive); err != nil {
			return nil, 0, err
		}
		result = append(result, t)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Teacher, error) {
	var t Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, name, email, subject, is_active, created_at, updated_at
		FROM teachers WHERE id = $1`, id).
		Scan(&t.ID, &t.Number, &t.Name, &t.Email, &t.Subject, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Teacher{}, shared.ErrNotFound
		}
		return Teacher{}, err
	}
	return t, nil
}

func (r *repository) Create(ctx context.Context, teacher Teacher) (Teacher, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teachers (number, name, email, subject, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW())
		RETURNING id`,
		teacher.Number, teacher.Name, teacher.Email, teacher.Subject).
		Scan(&teacher.ID)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return Teacher{}, shared.ErrDuplicate
		}
		return Teacher{}, err
	}
	teacher.IsActive = true
	return teacher, nil
}

func (r *repository) Update(ctx context.Context, id int64, teacher Teacher) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE teachers SET number = $1, name = $2, email = $3, subject = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6`,
		teacher.Number, teacher.Name, teacher.Email, teacher.Subject, teacher.IsActive, id)
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

// Delete removes a teacher. Class ownership is detached rather than
// cascaded; orphaned classes stay readable to admins only until reassigned.
func (r *repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE classes SET teacher_id = NULL WHERE teacher_id = $1`, id); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) OwnedClasses(ctx context.Context, id int64) ([]OwnedClass, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, COUNT(cs.student_id)
		FROM classes c
		LEFT JOIN class_students cs ON cs.class_id = c.id
		WHERE c.teacher_id = $1
		GROUP BY c.id, c.name
		ORDER BY c.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OwnedClass
	for rows.Next() {
		var c OwnedClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Students); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
