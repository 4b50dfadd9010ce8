package schedule

import (
	"github.com/Freeeeeet/drivingschool_bot/internal/grid"
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
)

// CellView is one evaluated cell of the current week.
type CellView struct {
	Coord       grid.Coord
	Decision    permission.Decision
	Reservation *model.Reservation
	Busy        bool
}

type DayView struct {
	Day   timegrid.Day
	Cells []CellView
}

// View is a render-ready snapshot of the current week.
type View struct {
	State     State
	Role      model.Role
	WeekIndex int
	WeekCount int
	WeekLabel string
	Labels    []string
	Days      []DayView
	CanPrev   bool
	CanNext   bool
	Notice    *Notice
}

// View evaluates every cell of the current week for the signed-in user.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:     c.state,
		Role:      c.identity.Role,
		WeekIndex: c.current,
		WeekCount: len(c.weeks),
		WeekLabel: timegrid.WeekLabel(c.current),
		Labels:    c.layout.Labels(),
	}
	if n, ok := c.notices.Current(); ok {
		v.Notice = &n
	}
	if c.store == nil || len(c.weeks) == 0 {
		return v
	}

	v.CanPrev = c.current > 0
	v.CanNext = c.current < len(c.weeks)-1

	now := c.now()
	week := c.weeks[c.current]
	v.Days = make([]DayView, 0, len(week))
	for _, day := range week {
		slots := c.store.Day(c.current, day.Key)
		dv := DayView{Day: day, Cells: make([]CellView, len(slots))}
		for i, r := range slots {
			coord := grid.Coord{Week: c.current, Day: day.Key, Slot: i}
			_, busy := c.busy[coord.Key()]
			dv.Cells[i] = CellView{
				Coord:       coord,
				Decision:    c.evaluator.Evaluate(c.identity, c.cellFor(day, i, r), now),
				Reservation: r,
				Busy:        busy,
			}
		}
		v.Days = append(v.Days, dv)
	}
	return v
}
