package attendance

import "time"

// Attendance statuses. The sheet accepts exactly these values.
const (
	StatusPresent = "present"
	StatusSick    = "sick"
	StatusLeave   = "leave"
	StatusLate    = "late"
	StatusAbsent  = "absent"
)

// KnownStatus reports whether s is a recognised attendance status.
func KnownStatus(s string) bool {
	switch s {
	case StatusPresent, StatusSick, StatusLeave, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// Entry is one student's attendance mark for a class on a date.
type Entry struct {
	ID          int64
	ClassID     int64
	StudentID   int64
	StudentName string
	ClassName   string
	Number      string
	Date        time.Time
	Status      string
	Note        string
}

// Recap aggregates marks by status for one day across the school.
type Recap struct {
	Date   time.Time
	Counts map[string]int
	Total  int
}
