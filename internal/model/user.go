package model

import "strings"

type Role string

const (
	RoleLearner    Role = "LEARNER"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// ParseRole maps a backend role string onto a Role. Matching is case-insensitive;
// STUDENT and USER are older spellings of LEARNER. Unknown roles get the least privilege.
func ParseRole(s string) Role {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin
	case "INSTRUCTOR", "TEACHER":
		return RoleInstructor
	default:
		return RoleLearner
	}
}

// IsStaff reports whether the role manages availability (instructors and admins).
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleInstructor
}

// User is the signed-in account as supplied by the auth backend.
// LearnerID is the separate learner-profile identity, empty for staff accounts.
type User struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	LearnerID string `json:"learner_id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
