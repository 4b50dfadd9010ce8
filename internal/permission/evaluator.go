// Package permission decides, per grid cell, whether the signed-in user may act on it.
package permission

import (
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
)

// DefaultCancelCutoff is how close to the start a learner may still cancel.
const DefaultCancelCutoff = 12 * time.Hour

type Action string

const (
	ActionNone   Action = ""
	ActionBook   Action = "book"
	ActionCancel Action = "cancel"
)

// Visual is the rendering state of a cell.
type Visual string

const (
	VisualBreak     Visual = "break"     // neutral, never interactive
	VisualPast      Visual = "past"      // muted
	VisualAvailable Visual = "available" // free slot
	VisualBlocked   Visual = "blocked"   // vacation / unavailable
	VisualBooked    Visual = "booked"    // someone's lesson, red
	VisualMine      Visual = "mine"      // the learner's own lesson, green
	VisualOwned     Visual = "owned"     // lesson on the instructor's own calendar
)

const (
	LabelBreak    = "Break"
	LabelBooked   = "Booked"
	LabelCanceled = "Canceled"
)

type Decision struct {
	Label     string
	Visual    Visual
	Clickable bool
	Action    Action
}

// Cell is everything the evaluator needs to know about one grid position.
type Cell struct {
	Label       string    // slot time label, e.g. "10:15 AM"
	Start       time.Time // slot start on its day
	Break       bool
	Reservation *model.Reservation
}

type Evaluator struct {
	cutoff time.Duration
}

func NewEvaluator(cutoff time.Duration) Evaluator {
	if cutoff <= 0 {
		cutoff = DefaultCancelCutoff
	}
	return Evaluator{cutoff: cutoff}
}

func (e Evaluator) Cutoff() time.Duration {
	return e.cutoff
}

// Evaluate applies the decision table in order: break, past, empty, blocked, booked.
func (e Evaluator) Evaluate(id auth.Identity, cell Cell, now time.Time) Decision {
	if cell.Break {
		return Decision{Label: LabelBreak, Visual: VisualBreak}
	}

	r := cell.Reservation
	kind := model.KindOf(r)

	if cell.Start.Before(now) {
		return Decision{Label: e.pastLabel(id, cell, kind), Visual: VisualPast}
	}

	switch kind {
	case model.CellBlocked:
		return e.blocked(id, r)
	case model.CellBooked:
		return e.booked(id, r, now)
	default:
		return Decision{Label: cell.Label, Visual: VisualAvailable, Clickable: true, Action: ActionBook}
	}
}

func (e Evaluator) blocked(id auth.Identity, r *model.Reservation) Decision {
	d := Decision{Label: LabelCanceled, Visual: VisualBlocked}
	if id.IsAdmin() || id.Instructs(r) {
		d.Clickable = true
		d.Action = ActionCancel
	}
	return d
}

func (e Evaluator) booked(id auth.Identity, r *model.Reservation, now time.Time) Decision {
	switch {
	case id.IsAdmin():
		label := r.LearnerFullName()
		if label == "" {
			label = LabelBooked
		}
		return Decision{Label: label, Visual: VisualBooked, Clickable: true, Action: ActionCancel}

	case id.Owns(r):
		if r.Start.Sub(now) < e.cutoff {
			return Decision{Label: LabelBooked, Visual: VisualBooked}
		}
		return Decision{Label: LabelBooked, Visual: VisualMine, Clickable: true, Action: ActionCancel}

	case id.Instructs(r):
		return Decision{Label: LabelBooked, Visual: VisualOwned, Clickable: true, Action: ActionCancel}

	default:
		return Decision{Label: LabelBooked, Visual: VisualBooked}
	}
}

// pastLabel labels a past cell by its content.
func (e Evaluator) pastLabel(id auth.Identity, cell Cell, kind model.CellKind) string {
	switch kind {
	case model.CellBlocked:
		return LabelCanceled
	case model.CellBooked:
		if id.IsAdmin() {
			if name := cell.Reservation.LearnerFullName(); name != "" {
				return name
			}
		}
		return LabelBooked
	default:
		return cell.Label
	}
}
