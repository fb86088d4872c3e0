package students

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/shared"
)

// Repository provides PostgreSQL backed persistence for students.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, teacherID int64) ([]Student, int, error)
	Get(ctx context.Context, id int64) (Student, error)
	Create(ctx context.Context, student Student) (Student, error)
	Update(ctx context.Context, id int64, student Student) error
	Delete(ctx context.Context, id int64) error
	Enrollments(ctx context.Context, id int64) ([]Enrollment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// List returns students matching the filters. When teacherID is non-zero
// the result is restricted to students enrolled in that teacher's classes.
func (r *repository) List(ctx context.Context, filters shared.ListFilters, teacherID int64) ([]Student, int, error) {
	query := `SELECT DISTINCT s.id, s.number, s.name, s.email, s.guardian_name, s.guardian_phone, s.is_active FROM students s`
	countQuery := `SELECT COUNT(DISTINCT s.id) FROM students s`
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if teacherID != 0 {
		join := ` JOIN class_students cs ON cs.student_id = s.id JOIN classes c ON c.id = cs.class_id`
		query += join
		countQuery += join
		argCount++
		where += ` AND c.teacher_id = $` + strconv.Itoa(argCount)
		args = append(args, teacherID)
	}
	if filters.Search != "" {
		argCount++
		where += ` AND (s.name ILIKE $` + strconv.Itoa(argCount) + ` OR s.number ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += where + ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)
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

	var result []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Number, &s.Name, &s.Email, &s.GuardianName, &s.GuardianPhone, &s.IsActive); err != nil {
			return nil, 0, err
		}
		result = append(result, s)
	}
	return result, total, rows.Err()
}

// Get fetches a student by ID.
func (r *repository) Get(ctx context.Context, id int64) (Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `
		SELECT id, number, name, email, guardian_name, guardian_phone, is_active, created_at, updated_at
		FROM students WHERE id = $1`, id).
		Scan(&s.ID, &s.Number, &s.Name, &s.Email, &s.GuardianName, &s.GuardianPhone, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Student{}, shared.ErrNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// Create inserts a new student record.
func (r *repository) Create(ctx context.Context, student Student) (Student, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (number, name, email, guardian_name, guardian_phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING id`,
		student.Number, student.Name, student.Email, student.GuardianName, student.GuardianPhone).
		Scan(&student.ID)
	if err != nil {
		if shared.IsUniqueViolation(err, "") {
			return Student{}, shared.ErrDuplicate
		}
		return Student{}, err
	}
	student.IsActive = true
	return student, nil
}

// Update updates an existing student record.
func (r *repository) Update(ctx context.Context, id int64, student Student) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE students SET number = $1, name = $2, email = $3, guardian_name = $4, guardian_phone = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7`,
		student.Number, student.Name, student.Email, student.GuardianName, student.GuardianPhone, student.IsActive, id)
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

// Delete removes a student record.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Enrollments lists the classes the student is enrolled in.
func (r *repository) Enrollments(ctx context.Context, id int64) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, COALESCE(c.teacher_id, 0)
		FROM class_students cs
		JOIN classes c ON c.id = cs.class_id
		WHERE cs.student_id = $1
		ORDER BY c.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ClassID, &e.ClassName, &e.TeacherID); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "number":
		return "s.number " + dir
	case "name":
		return "s.name " + dir
	default:
		return "s.name " + dir
	}
}
