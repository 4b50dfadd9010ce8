package auth

import (
	"errors"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
)

var ErrNoSession = errors.New("no active session")

// Session is what the auth backend hands out on login: a bearer token and the profile.
type Session struct {
	Token string
	User  model.User
}

func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Identity returns the identity resolved for this session.
func (s Session) Identity() Identity {
	return Resolve(s.User)
}

// Identity is resolved once per session and used for every ownership check.
//
// LearnerID is the canonical "mine" value: the learner-profile id when the backend
// provides one, the account id otherwise. Reservations are compared against this single
// value and nothing else.
type Identity struct {
	UserID    string
	Role      model.Role
	LearnerID string
}

func Resolve(u model.User) Identity {
	learnerID := u.LearnerID
	if learnerID == "" {
		learnerID = u.ID
	}
	return Identity{
		UserID:    u.ID,
		Role:      u.Role,
		LearnerID: learnerID,
	}
}

// Owns reports whether the reservation is a lesson booked by this learner.
func (i Identity) Owns(r *model.Reservation) bool {
	if r == nil || r.IsBlocked() || i.LearnerID == "" {
		return false
	}
	return *r.LearnerID == i.LearnerID
}

// Instructs reports whether the reservation belongs to this instructor's calendar.
func (i Identity) Instructs(r *model.Reservation) bool {
	if r == nil || i.UserID == "" {
		return false
	}
	return i.Role == model.RoleInstructor && r.InstructorID == i.UserID
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}
