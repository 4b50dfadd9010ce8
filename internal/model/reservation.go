package model

import (
	"strings"
	"time"
)

// Reservation is a server-side record occupying one instructor's time at one slot.
// A nil LearnerID marks a blocked ("vacation") slot rather than a lesson.
type Reservation struct {
	ID               string     `json:"id"`
	Start            time.Time  `json:"start"`
	End              time.Time  `json:"end"`
	InstructorID     string     `json:"instructor_id"`
	LearnerID        *string    `json:"learner_id"`
	Cancelled        bool       `json:"cancelled"`
	LearnerFirstName string     `json:"learner_first_name,omitempty"`
	LearnerLastName  string     `json:"learner_last_name,omitempty"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
}

// IsBlocked reports whether the reservation blocks the slot without a learner.
func (r *Reservation) IsBlocked() bool {
	return r.LearnerID == nil || *r.LearnerID == ""
}

// LearnerFullName returns "First Last" or an empty string when the backend omits names.
func (r *Reservation) LearnerFullName() string {
	return strings.TrimSpace(r.LearnerFirstName + " " + r.LearnerLastName)
}

// CellKind classifies what a grid cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellBooked
	CellBlocked
)

func (k CellKind) String() string {
	switch k {
	case CellBooked:
		return "booked"
	case CellBlocked:
		return "blocked"
	default:
		return "empty"
	}
}

// KindOf derives the cell kind from its reservation. Cancelled reservations count as empty.
func KindOf(r *Reservation) CellKind {
	switch {
	case r == nil || r.Cancelled:
		return CellEmpty
	case r.IsBlocked():
		return CellBlocked
	default:
		return CellBooked
	}
}

// StringPtr is a small helper for optional ids.
func StringPtr(s string) *string {
	return &s
}
