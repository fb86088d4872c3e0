package classes

import "time"

// Class represents a class (homeroom/subject group) owned by a teacher.
// TeacherID is zero when ownership is orphaned, e.g. after the owning
// teacher was removed; orphaned classes are only reachable by admins.
type Class struct {
	ID           int64
	Code         string
	Name         string
	TeacherID    int64
	TeacherName  string
	AcademicYear string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Member is a student enrolled in a class.
type Member struct {
	StudentID int64
	Number    string
	Name      string
}
