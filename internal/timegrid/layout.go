package timegrid

import (
	"fmt"
	"time"
)

// DefaultSlotLabels is the daily lesson plan of the school.
var DefaultSlotLabels = []string{
	"8:00 AM",
	"9:00 AM",
	"10:00 AM",
	"10:15 AM",
	"11:15 AM",
	"12:15 PM",
	"12:45 PM",
	"1:45 PM",
	"2:45 PM",
	"3:00 PM",
	"4:00 PM",
}

// DefaultBreaks are slot indices reserved for rest periods.
var DefaultBreaks = []int{2, 5, 8}

const DefaultSlotDuration = 45 * time.Minute

// Layout is the fixed slot table shared by grid construction and reservation alignment.
// It is immutable after construction.
type Layout struct {
	labels   []string
	times    []SlotTime
	breaks   map[int]bool
	duration time.Duration
}

func NewLayout(labels []string, breaks []int, duration time.Duration) (*Layout, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("layout needs at least one slot")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %s", duration)
	}

	l := &Layout{
		labels:   append([]string(nil), labels...),
		times:    make([]SlotTime, len(labels)),
		breaks:   make(map[int]bool, len(breaks)),
		duration: duration,
	}

	seen := make(map[SlotTime]int, len(labels))
	for i, label := range labels {
		st, err := ParseSlotTime(label)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		if prev, dup := seen[st]; dup {
			return nil, fmt.Errorf("slot %d duplicates slot %d (%s)", i, prev, label)
		}
		seen[st] = i
		l.times[i] = st
	}

	for _, b := range breaks {
		if b < 0 || b >= len(labels) {
			return nil, fmt.Errorf("break index %d out of range [0, %d)", b, len(labels))
		}
		l.breaks[b] = true
	}

	return l, nil
}

// DefaultLayout returns the school's standard layout with the given lesson length.
func DefaultLayout(duration time.Duration) *Layout {
	l, err := NewLayout(DefaultSlotLabels, DefaultBreaks, duration)
	if err != nil {
		panic("default layout: " + err.Error())
	}
	return l
}

func (l *Layout) SlotCount() int {
	return len(l.labels)
}

func (l *Layout) Duration() time.Duration {
	return l.duration
}

func (l *Layout) Label(i int) string {
	if i < 0 || i >= len(l.labels) {
		return ""
	}
	return l.labels[i]
}

func (l *Layout) Labels() []string {
	return append([]string(nil), l.labels...)
}

func (l *Layout) IsBreak(i int) bool {
	return l.breaks[i]
}

func (l *Layout) Valid(i int) bool {
	return i >= 0 && i < len(l.labels)
}

// SlotStart returns the wall-clock start of slot i on the given date.
func (l *Layout) SlotStart(date time.Time, i int) time.Time {
	return l.times[i].On(date)
}

// SlotEnd returns SlotStart plus the fixed lesson duration.
func (l *Layout) SlotEnd(date time.Time, i int) time.Time {
	return l.SlotStart(date, i).Add(l.duration)
}

// IndexOf finds the slot whose start matches t's hour and minute exactly.
func (l *Layout) IndexOf(t time.Time) (int, bool) {
	for i, st := range l.times {
		if st.Matches(t) {
			return i, true
		}
	}
	return -1, false
}
