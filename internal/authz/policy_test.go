package authz

import "testing"

var (
	admin   = Principal{UserID: 1, Role: RoleAdmin}
	teacher = Principal{UserID: 2, Role: RoleTeacher, TeacherID: 2}
	student = Principal{UserID: 3, Role: RoleStudent, StudentID: 9}
)

func TestCheckAdminAllowsEverything(t *testing.T) {
	types := []ResourceType{ResourceStudent, ResourceTeacher, ResourceClass, ResourceAttendance, ResourceGrade}
	for _, typ := range types {
		for _, action := range []Action{ActionRead, ActionWrite} {
			d := Check(admin, action, Resource{Type: typ, OwnerStudentID: 42, OwnerTeacherID: 7})
			if !d.Allow {
				t.Fatalf("admin %s on %s denied: %s", action, typ, d.Reason)
			}
		}
	}
}

func TestCheckTeacherClassOwnership(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		res    Resource
		allow  bool
		reason Reason
	}{
		{"read own class", ActionRead, Resource{Type: ResourceClass, OwnerTeacherID: 2}, true, ReasonPermitted},
		{"write own class", ActionWrite, Resource{Type: ResourceClass, OwnerTeacherID: 2}, true, ReasonPermitted},
		{"read other class", ActionRead, Resource{Type: ResourceClass, OwnerTeacherID: 5}, false, ReasonNotOwner},
		{"write other class", ActionWrite, Resource{Type: ResourceClass, OwnerTeacherID: 5}, false, ReasonNotOwner},
		{"orphaned class", ActionWrite, Resource{Type: ResourceClass}, false, ReasonNotOwner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Check(teacher, tt.action, tt.res)
			if d.Allow != tt.allow || d.Reason != tt.reason {
				t.Fatalf("got %+v, want allow=%v reason=%s", d, tt.allow, tt.reason)
			}
		})
	}
}

func TestCheckTeacherAttendanceAndGrades(t *testing.T) {
	for _, typ := range []ResourceType{ResourceAttendance, ResourceGrade} {
		owned := Resource{Type: typ, OwnerStudentID: 9, OwnerTeacherID: 2}
		if d := Check(teacher, ActionWrite, owned); !d.Allow {
			t.Fatalf("teacher write on owned-class %s denied: %s", typ, d.Reason)
		}
		if d := Check(teacher, ActionRead, owned); !d.Allow {
			t.Fatalf("teacher read on owned-class %s denied: %s", typ, d.Reason)
		}
		other := Resource{Type: typ, OwnerStudentID: 9, OwnerTeacherID: 4}
		if d := Check(teacher, ActionWrite, other); d.Allow {
			t.Fatalf("teacher write on foreign-class %s allowed", typ)
		}
	}
}

func TestCheckTeacherStudentRead(t *testing.T) {
	enrolled := Resource{Type: ResourceStudent, OwnerStudentID: 9, TeacherIDs: []int64{2, 8}}
	if d := Check(teacher, ActionRead, enrolled); !d.Allow {
		t.Fatalf("teacher read of enrolled student denied: %s", d.Reason)
	}
	if d := Check(teacher, ActionWrite, enrolled); d.Allow {
		t.Fatal("teacher write on student record allowed")
	}
	stranger := Resource{Type: ResourceStudent, OwnerStudentID: 10, TeacherIDs: []int64{8}}
	if d := Check(teacher, ActionRead, stranger); d.Allow {
		t.Fatal("teacher read of unenrolled student allowed")
	}
}

func TestCheckTeacherWithoutRecordOwnsNothing(t *testing.T) {
	// A teacher account whose teacher record was removed keeps the role
	// but must not match orphaned ownership facts.
	unlinked := Principal{UserID: 4, Role: RoleTeacher}
	d := Check(unlinked, ActionWrite, Resource{Type: ResourceClass, OwnerTeacherID: 0})
	if d.Allow {
		t.Fatal("unlinked teacher matched orphaned class ownership")
	}
}

func TestCheckStudentWritesAlwaysDenied(t *testing.T) {
	types := []ResourceType{ResourceStudent, ResourceTeacher, ResourceClass, ResourceAttendance, ResourceGrade}
	for _, typ := range types {
		d := Check(student, ActionWrite, Resource{Type: typ, OwnerStudentID: 9})
		if d.Allow {
			t.Fatalf("student write on %s allowed", typ)
		}
		if d.Reason != ReasonReadOnly {
			t.Fatalf("student write on %s: reason %s, want %s", typ, d.Reason, ReasonReadOnly)
		}
	}
}

func TestCheckStudentReadsOwnRecordsOnly(t *testing.T) {
	for _, typ := range []ResourceType{ResourceStudent, ResourceAttendance, ResourceGrade} {
		if d := Check(student, ActionRead, Resource{Type: typ, OwnerStudentID: 9}); !d.Allow {
			t.Fatalf("student read of own %s denied: %s", typ, d.Reason)
		}
		if d := Check(student, ActionRead, Resource{Type: typ, OwnerStudentID: 10}); d.Allow {
			t.Fatalf("student read of foreign %s allowed", typ)
		}
	}
	if d := Check(student, ActionRead, Resource{Type: ResourceClass, OwnerTeacherID: 2}); d.Allow {
		t.Fatal("student read of class roster allowed")
	}
}

func TestCheckGradeScenario(t *testing.T) {
	// Teacher 2 owns class 5; student 9 is enrolled in it.
	grade := Resource{Type: ResourceGrade, OwnerStudentID: 9, OwnerTeacherID: 2}
	if d := Check(teacher, ActionWrite, grade); !d.Allow {
		t.Fatalf("owning teacher cannot write grade: %s", d.Reason)
	}
	if d := Check(student, ActionWrite, grade); d.Allow {
		t.Fatal("student wrote a grade")
	}
	if d := Check(student, ActionRead, grade); !d.Allow {
		t.Fatalf("student cannot read own grade: %s", d.Reason)
	}
	foreign := Resource{Type: ResourceGrade, OwnerStudentID: 10, OwnerTeacherID: 2}
	if d := Check(student, ActionRead, foreign); d.Allow {
		t.Fatal("student read another student's grade")
	}
}

func TestCheckUnauthenticatedDeniesAll(t *testing.T) {
	var anon Principal
	for _, action := range []Action{ActionRead, ActionWrite} {
		d := Check(anon, action, Resource{Type: ResourceStudent, OwnerStudentID: 9})
		if d.Allow {
			t.Fatalf("unauthenticated %s allowed", action)
		}
		if d.Reason != ReasonNotAuthenticated {
			t.Fatalf("reason %s, want %s", d.Reason, ReasonNotAuthenticated)
		}
	}
}

func TestCheckUnknownResourceFailsClosed(t *testing.T) {
	for _, p := range []Principal{admin, teacher, student} {
		d := Check(p, ActionRead, Resource{Type: "report_card"})
		if d.Allow {
			t.Fatalf("%s allowed on unknown resource type", p.Role)
		}
		if d.Reason != ReasonUnknownResource {
			t.Fatalf("reason %s, want %s", d.Reason, ReasonUnknownResource)
		}
	}
}

func TestCheckIsDeterministic(t *testing.T) {
	res := Resource{Type: ResourceGrade, OwnerStudentID: 9, OwnerTeacherID: 2}
	first := Check(teacher, ActionWrite, res)
	for i := 0; i < 100; i++ {
		if got := Check(teacher, ActionWrite, res); got != first {
			t.Fatalf("decision drifted: %+v vs %+v", got, first)
		}
	}
}
