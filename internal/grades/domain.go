package grades

import "time"

// Term is an academic grading period. Scores are only writable while the
// term's status is OPEN.
type Term struct {
	ID     int64
	Name   string
	Status string
}

// Grade is one score record for a student in a class during a term.
type Grade struct {
	ID          int64
	ClassID     int64
	ClassName   string
	StudentID   int64
	StudentName string
	Number      string
	TermID      int64
	TermName    string
	Subject     string
	Score       float64
	Letter      string
	UpdatedAt   time.Time
}
