package students

import "time"

// Student represents an enrolled student record.
type Student struct {
	ID            int64
	Number        string // school-issued student number
	Name          string
	Email         string
	GuardianName  string
	GuardianPhone string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Enrollment pairs a student with one of their classes.
type Enrollment struct {
	ClassID   int64
	ClassName string
	TeacherID int64
}
