package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Stats is the admin landing snapshot.
type Stats struct {
	Students       int `json:"students"`
	Teachers       int `json:"teachers"`
	Classes        int `json:"classes"`
	ActiveAccounts int `json:"active_accounts"`
	PresentToday   int `json:"present_today"`
	AbsentToday    int `json:"absent_today"`
	MarkedToday    int `json:"marked_today"`
}

// TeacherStats scopes the snapshot to one teacher's classes.
type TeacherStats struct {
	Classes      int `json:"classes"`
	Students     int `json:"students"`
	MarkedToday  int `json:"marked_today"`
	PresentToday int `json:"present_today"`
}

// StudentStats scopes the snapshot to one student.
type StudentStats struct {
	Classes       int     `json:"classes"`
	PresentRate   float64 `json:"present_rate"`
	GradedRecords int     `json:"graded_records"`
}

// Repository aggregates dashboard counts straight from the tables.
type Repository interface {
	AdminStats(ctx context.Context, today time.Time) (Stats, error)
	TeacherStats(ctx context.Context, teacherID int64, today time.Time) (TeacherStats, error)
	StudentStats(ctx context.Context, studentID int64) (StudentStats, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) AdminStats(ctx context.Context, today time.Time) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM teachers),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM attendance WHERE date = $1 AND status = 'present'),
			(SELECT COUNT(*) FROM attendance WHERE date = $1 AND status = 'absent'),
			(SELECT COUNT(*) FROM attendance WHERE date = $1)`, today).
		Scan(&s.Students, &s.Teachers, &s.Classes, &s.ActiveAccounts,
			&s.PresentToday, &s.AbsentToday, &s.MarkedToday)
	return s, err
}

func (r *repository) TeacherStats(ctx context.Context, teacherID int64, today time.Time) (TeacherStats, error) {
	var s TeacherStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM classes WHERE teacher_id = $1),
			(SELECT COUNT(DISTINCT cs.student_id) FROM class_students cs
				JOIN classes c ON c.id = cs.class_id WHERE c.teacher_id = $1),
			(SELECT COUNT(*) FROM attendance a
				JOIN classes c ON c.id = a.class_id WHERE c.teacher_id = $1 AND a.date = $2),
			(SELECT COUNT(*) FROM attendance a
				JOIN classes c ON c.id = a.class_id
				WHERE c.teacher_id = $1 AND a.date = $2 AND a.status = 'present')`,
		teacherID, today).
		Scan(&s.Classes, &s.Students, &s.MarkedToday, &s.PresentToday)
	return s, err
}

func (r *repository) StudentStats(ctx context.Context, studentID int64) (StudentStats, error) {
	var s StudentStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM class_students WHERE student_id = $1),
			COALESCE((SELECT AVG(CASE WHEN status = 'present' THEN 1.0 ELSE 0.0 END)
				FROM attendance WHERE student_id = $1), 0),
			(SELECT COUNT(*) FROM grades WHERE student_id = $1)`, studentID).
		Scan(&s.Classes, &s.PresentRate, &s.GradedRecords)
	return s, err
}
