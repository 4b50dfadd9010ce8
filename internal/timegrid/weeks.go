package timegrid

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
)

const (
	DaysPerWeek  = 5 // Monday to Friday
	LearnerWeeks = 2
	StaffWeeks   = 3

	dayKeyLayout = "2006-01-02"

	// Friday lessons end at five; after that a learner has nothing left to book this week.
	fridayCutoffHour = 17
)

// Day is one calendar date in the visible window. Key is its stable grid key.
type Day struct {
	Date time.Time
	Key  string
}

func NewDay(date time.Time) Day {
	d := StartOfDay(date)
	return Day{Date: d, Key: DayKey(d)}
}

// Week is Monday through Friday.
type Week [DaysPerWeek]Day

func (w Week) First() Day { return w[0] }
func (w Week) Last() Day  { return w[DaysPerWeek-1] }

// Contains reports whether the day key is one of this week's days.
func (w Week) Contains(key string) bool {
	for _, d := range w {
		if d.Key == key {
			return true
		}
	}
	return false
}

// DayKey is the calendar-date key used throughout the grid.
func DayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

// ParseDayKey parses a key produced by DayKey into local midnight.
func ParseDayKey(key string) (time.Time, error) {
	return time.ParseInLocation(dayKeyLayout, key, time.Local)
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay is 23:59:59 on t's date.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// MondayOf returns midnight of the Monday of t's week. Sunday belongs to the week
// that started six days earlier.
func MondayOf(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	offset := (weekday - 1 + 7) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

// Horizon describes how many weeks are visible and where they start.
type Horizon struct {
	Weeks int
	// ShiftAfterFriday starts the window at next Monday once the school week is over
	// (Friday 17:00 onwards, and weekends).
	ShiftAfterFriday bool
}

// HorizonFor gives learners two weeks and staff three.
func HorizonFor(role model.Role, shiftAfterFriday bool) Horizon {
	weeks := LearnerWeeks
	if role.IsStaff() {
		weeks = StaffWeeks
	}
	return Horizon{Weeks: weeks, ShiftAfterFriday: shiftAfterFriday}
}

// Generate builds the visible weeks for today. Each day is a fresh value; nothing is
// shared between weeks.
func (h Horizon) Generate(today time.Time) []Week {
	monday := MondayOf(today)
	if h.ShiftAfterFriday && weekIsOver(today) {
		monday = monday.AddDate(0, 0, 7)
	}

	weeks := make([]Week, h.Weeks)
	for w := range weeks {
		for d := 0; d < DaysPerWeek; d++ {
			weeks[w][d] = NewDay(monday.AddDate(0, 0, w*7+d))
		}
	}
	return weeks
}

// GenerateWeeks is Horizon{Weeks: count}.Generate(today).
func GenerateWeeks(today time.Time, count int) []Week {
	return Horizon{Weeks: count}.Generate(today)
}

func weekIsOver(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	case time.Friday:
		return t.Hour() >= fridayCutoffHour
	default:
		return false
	}
}

// Range returns the wall-clock interval covering every visible day, first day 00:00:00
// through last day 23:59:59.
func Range(weeks []Week) (from, to time.Time) {
	if len(weeks) == 0 {
		return time.Time{}, time.Time{}
	}
	from = weeks[0].First().Date
	to = EndOfDay(weeks[len(weeks)-1].Last().Date)
	return from, to
}

// DayRange returns the interval of a single day.
func DayRange(day Day) (from, to time.Time) {
	return day.Date, EndOfDay(day.Date)
}

// WeekLabel names a week index relative to the current one.
func WeekLabel(index int) string {
	switch index {
	case 0:
		return "This Week"
	case 1:
		return "Next Week"
	case 2:
		return "Week After"
	default:
		return fmt.Sprintf("In %d weeks", index)
	}
}
