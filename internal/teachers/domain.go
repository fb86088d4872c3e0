package teachers

import "time"

// Teacher represents a teaching staff record.
type Teacher struct {
	ID        int64
	Number    string // staff number
	Name      string
	Email     string
	Subject   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedClass summarises a class owned by a teacher.
type OwnedClass struct {
	ID       int64
	Name     string
	Students int
}
