package authz

// Check decides whether the principal may perform the action on the
// resource. It is a pure function: identical inputs always produce the
// identical decision, and unknown inputs fail closed.
//
// Precedence: the first matching rule wins, there is no rule stacking.
//  1. admins may do anything,
//  2. teachers own their classes and the attendance/grade records of those
//     classes, and may read students enrolled with them,
//  3. students may read their own records only,
//  4. everything else is denied.
func Check(p Principal, action Action, res Resource) Decision {
	if !p.Authenticated() {
		return deny(ReasonNotAuthenticated)
	}
	if !res.Type.known() {
		return deny(ReasonUnknownResource)
	}

	switch p.Role {
	case RoleAdmin:
		return allow()
	case RoleTeacher:
		return checkTeacher(p, action, res)
	case RoleStudent:
		return checkStudent(p, action, res)
	}
	return deny(ReasonRoleForbidden)
}

func checkTeacher(p Principal, action Action, res Resource) Decision {
	// A teacher principal without a linked teacher record can own
	// nothing: ownership comparisons against the zero ID must not match.
	if p.TeacherID == 0 {
		return deny(ReasonNotOwner)
	}

	switch res.Type {
	case ResourceClass:
		if res.OwnerTeacherID == p.TeacherID {
			return allow()
		}
		return deny(ReasonNotOwner)
	case ResourceAttendance, ResourceGrade:
		if res.OwnerTeacherID == p.TeacherID {
			return allow()
		}
		return deny(ReasonNotOwner)
	case ResourceStudent:
		if action != ActionRead {
			return deny(ReasonRoleForbidden)
		}
		for _, id := range res.TeacherIDs {
			if id == p.TeacherID {
				return allow()
			}
		}
		return deny(ReasonNotOwner)
	}
	return deny(ReasonRoleForbidden)
}

func checkStudent(p Principal, action Action, res Resource) Decision {
	if action == ActionWrite {
		return deny(ReasonReadOnly)
	}
	switch res.Type {
	case ResourceStudent, ResourceAttendance, ResourceGrade:
		if p.StudentID != 0 && res.OwnerStudentID == p.StudentID {
			return allow()
		}
		return deny(ReasonNotOwner)
	}
	return deny(ReasonRoleForbidden)
}
