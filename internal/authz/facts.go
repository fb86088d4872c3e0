package authz

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akademi-sis/akademi/internal/shared"
)

// FactFinder resolves the ownership facts a caller needs to build a
// Resource descriptor. It is the only part of this package that touches
// the store; Check itself stays pure.
type FactFinder struct {
	pool *pgxpool.Pool
}

// NewFactFinder constructs a FactFinder backed by the provided pool.
func NewFactFinder(pool *pgxpool.Pool) *FactFinder {
	return &FactFinder{pool: pool}
}

// ClassResource builds the descriptor for a class record.
func (f *FactFinder) ClassResource(ctx context.Context, classID int64) (Resource, error) {
	owner, err := f.classOwner(ctx, classID)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Type: ResourceClass, OwnerTeacherID: owner}, nil
}

// AttendanceResource builds the descriptor for an attendance record
// belonging to the given student and class.
func (f *FactFinder) AttendanceResource(ctx context.Context, studentID, classID int64) (Resource, error) {
	owner, err := f.classOwner(ctx, classID)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Type: ResourceAttendance, OwnerStudentID: studentID, OwnerTeacherID: owner}, nil
}

// GradeResource builds the descriptor for a grade record belonging to the
// given student and class.
func (f *FactFinder) GradeResource(ctx context.Context, studentID, classID int64) (Resource, error) {
	owner, err := f.classOwner(ctx, classID)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Type: ResourceGrade, OwnerStudentID: studentID, OwnerTeacherID: owner}, nil
}

// StudentResource builds the descriptor for a student record, including
// the teachers the student is enrolled with.
func (f *FactFinder) StudentResource(ctx context.Context, studentID int64) (Resource, error) {
	rows, err := f.pool.Query(ctx, `
		SELECT DISTINCT c.teacher_id
		FROM class_students cs
		JOIN classes c ON c.id = cs.class_id
		WHERE cs.student_id = $1 AND c.teacher_id IS NOT NULL`, studentID)
	if err != nil {
		return Resource{}, err
	}
	defer rows.Close()

	var teacherIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return Resource{}, err
		}
		teacherIDs = append(teacherIDs, id)
	}
	if err := rows.Err(); err != nil {
		return Resource{}, err
	}
	return Resource{Type: ResourceStudent, OwnerStudentID: studentID, TeacherIDs: teacherIDs}, nil
}

// classOwner returns the owning teacher of a class, or zero when the class
// has no owner on record. A removed teacher leaves the ownership fact
// absent, which the policy treats as deny.
func (f *FactFinder) classOwner(ctx context.Context, classID int64) (int64, error) {
	var owner *int64
	err := f.pool.QueryRow(ctx, `SELECT teacher_id FROM classes WHERE id = $1`, classID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	if owner == nil {
		return 0, nil
	}
	return *owner, nil
}
