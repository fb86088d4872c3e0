package attendance

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for attendance.
type Repository interface {
	Sheet(ctx context.Context, classID int64, date time.Time) ([]Entry, error)
	SaveSheet(ctx context.Context, classID int64, date time.Time, marks map[int64]Entry) error
	ForStudent(ctx context.Context, studentID int64, from, to time.Time) ([]Entry, error)
	CountByStatus(ctx context.Context, date time.Time) (Recap, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Sheet returns one row per enrolled student, with any existing mark for
// the date joined in. Unmarked students come back with an empty status.
func (r *repository) Sheet(ctx context.Context, classID int64, date time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.number, s.name, COALESCE(a.id, 0), COALESCE(a.status, ''), COALESCE(a.note, '')
		FROM class_students cs
		JOIN students s ON s.id = cs.student_id
		LEFT JOIN attendance a ON a.class_id = cs.class_id AND a.student_id = s.id AND a.date = $2
		WHERE cs.class_id = $1
		ORDER BY s.name`, classID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e := Entry{ClassID: classID, Date: date}
		if err := rows.Scan(&e.StudentID, &e.Number, &e.StudentName, &e.ID, &e.Status, &e.Note); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// SaveSheet upserts the provided marks for a class and date in one
// transaction so a half-saved sheet never becomes visible.
func (r *repository) SaveSheet(ctx context.Context, classID int64, date time.Time, marks map[int64]Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for studentID, mark := range marks {
			_, err := tx.Exec(ctx, `
				INSERT INTO attendance (class_id, student_id, date, status, note, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
				ON CONFLICT (class_id, student_id, date)
				DO UPDATE SET status = EXCLUDED.status, note = EXCLUDED.note, updated_at = NOW()`,
				classID, studentID, date, mark.Status, mark.Note)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ForStudent lists a student's marks across all classes in a date range.
func (r *repository) ForStudent(ctx context.Context, studentID int64, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.class_id, c.name, a.date, a.status, COALESCE(a.note, '')
		FROM attendance a
		JOIN classes c ON c.id = a.class_id
		WHERE a.student_id = $1 AND a.date BETWEEN $2 AND $3
		ORDER BY a.date DESC, c.name`, studentID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e := Entry{StudentID: studentID}
		if err := rows.Scan(&e.ID, &e.ClassID, &e.ClassName, &e.Date, &e.Status, &e.Note); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CountByStatus aggregates all marks for a date.
func (r *repository) CountByStatus(ctx context.Context, date time.Time) (Recap, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM attendance WHERE date = $1 GROUP BY status`, date)
	if err != nil {
		return Recap{}, err
	}
	defer rows.Close()

	recap := Recap{Date: date, Counts: make(map[string]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Recap{}, err
		}
		recap.Counts[status] = count
		recap.Total += count
	}
	return recap, rows.Err()
}
