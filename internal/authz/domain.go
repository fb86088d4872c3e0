// Package authz implements the role-scoped authorization model: who may
// read or write which school records. Decisions are pure functions of the
// principal, the action, and pre-resolved ownership facts; the package never
// touches the store during a check.
package authz

// Role is one of exactly three account roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Action distinguishes record reads from record mutations.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// ResourceType identifies the kind of record being accessed.
type ResourceType string

const (
	ResourceStudent    ResourceType = "student"
	ResourceTeacher    ResourceType = "teacher"
	ResourceClass      ResourceType = "class"
	ResourceAttendance ResourceType = "attendance"
	ResourceGrade      ResourceType = "grade"
)

func (t ResourceType) known() bool {
	switch t {
	case ResourceStudent, ResourceTeacher, ResourceClass, ResourceAttendance, ResourceGrade:
		return true
	}
	return false
}

// Principal is the authenticated identity attached to a request. It is
// resolved fresh per request and discarded when the request completes.
// The zero value is the unauthenticated principal.
type Principal struct {
	UserID int64
	Role   Role

	// TeacherID links a teacher-role principal to its teacher record.
	TeacherID int64
	// StudentID links a student-role principal to its student record.
	StudentID int64
}

// Authenticated reports whether the principal carries a valid identity.
func (p Principal) Authenticated() bool {
	return p.UserID != 0 && p.Role.Valid()
}

// Resource describes the minimal ownership facts about the record being
// accessed. The caller resolves these facts from the store before invoking
// Check; a zero owner ID means the fact is absent (orphaned ownership).
type Resource struct {
	Type ResourceType

	// OwnerStudentID is the student the record belongs to.
	OwnerStudentID int64
	// OwnerTeacherID is the teacher owning the class the record belongs
	// to. For class resources it is the class owner itself.
	OwnerTeacherID int64
	// TeacherIDs lists teachers that have the student enrolled in one of
	// their classes. Only populated for student resources.
	TeacherIDs []int64
}

// Reason explains an authorization decision.
type Reason string

const (
	ReasonPermitted        Reason = "permitted"
	ReasonNotAuthenticated Reason = "not_authenticated"
	ReasonUnknownResource  Reason = "unknown_resource"
	ReasonNotOwner         Reason = "not_owner"
	ReasonReadOnly         Reason = "read_only"
	ReasonRoleForbidden    Reason = "role_forbidden"
)

// Decision is the outcome of an authorization check. Never persisted.
type Decision struct {
	Allow  bool
	Reason Reason
}

func allow() Decision {
	return Decision{Allow: true, Reason: ReasonPermitted}
}

func deny(reason Reason) Decision {
	return Decision{Allow: false, Reason: reason}
}
