// Package grid holds the client-side week × day × slot mirror of the backend reservations.
//
// A Store is not safe for concurrent use; the schedule controller owns it and serialises
// access.
package grid

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
)

var ErrOutOfGrid = errors.New("cell is outside the visible grid")

// Coord addresses one cell: week index, day key and slot index.
type Coord struct {
	Week int
	Day  string
	Slot int
}

// Key is a stable string form used for busy tracking and callback data.
func (c Coord) Key() string {
	return fmt.Sprintf("%d:%s:%d", c.Week, c.Day, c.Slot)
}

// DropReason explains why a fetched reservation did not land in the grid.
type DropReason string

const (
	DropCancelled   DropReason = "cancelled"
	DropUnaligned   DropReason = "unaligned"
	DropOutOfWindow DropReason = "out_of_window"
)

type Dropped struct {
	Reservation *model.Reservation
	Reason      DropReason
}

type Store struct {
	layout  *timegrid.Layout
	weeks   []timegrid.Week
	cells   map[int]map[string][]*model.Reservation
	weekFor map[string]int
}

// NewStore builds an empty grid: every visible day gets slotCount empty cells.
func NewStore(weeks []timegrid.Week, layout *timegrid.Layout) *Store {
	s := &Store{
		layout:  layout,
		weeks:   weeks,
		cells:   make(map[int]map[string][]*model.Reservation, len(weeks)),
		weekFor: make(map[string]int, len(weeks)*timegrid.DaysPerWeek),
	}
	for w, week := range weeks {
		days := make(map[string][]*model.Reservation, timegrid.DaysPerWeek)
		for _, d := range week {
			days[d.Key] = make([]*model.Reservation, layout.SlotCount())
			s.weekFor[d.Key] = w
		}
		s.cells[w] = days
	}
	return s
}

// Build returns a fresh store filled from a range fetch, plus what was left out.
func Build(weeks []timegrid.Week, layout *timegrid.Layout, reservations []*model.Reservation) (*Store, []Dropped) {
	s := NewStore(weeks, layout)
	var dropped []Dropped
	for _, r := range reservations {
		if reason, ok := s.place(r); !ok {
			dropped = append(dropped, Dropped{Reservation: r, Reason: reason})
		}
	}
	return s, dropped
}

// Locate finds the cell a reservation belongs to.
func (s *Store) Locate(r *model.Reservation) (Coord, DropReason, bool) {
	if r == nil || r.Cancelled {
		return Coord{}, DropCancelled, false
	}
	slot, ok := s.layout.IndexOf(r.Start)
	if !ok {
		return Coord{}, DropUnaligned, false
	}
	day := timegrid.DayKey(r.Start)
	week, ok := s.weekFor[day]
	if !ok {
		return Coord{}, DropOutOfWindow, false
	}
	return Coord{Week: week, Day: day, Slot: slot}, "", true
}

func (s *Store) place(r *model.Reservation) (DropReason, bool) {
	c, reason, ok := s.Locate(r)
	if !ok {
		return reason, false
	}
	s.cells[c.Week][c.Day][c.Slot] = r
	return "", true
}

// Contains reports whether the coordinate addresses a cell of this grid.
func (s *Store) Contains(c Coord) bool {
	days, ok := s.cells[c.Week]
	if !ok {
		return false
	}
	slots, ok := days[c.Day]
	if !ok {
		return false
	}
	return c.Slot >= 0 && c.Slot < len(slots)
}

// At returns the reservation in the cell, or nil for an empty or unknown cell.
func (s *Store) At(c Coord) *model.Reservation {
	if !s.Contains(c) {
		return nil
	}
	return s.cells[c.Week][c.Day][c.Slot]
}

// Put writes r into the cell, replacing whatever was there.
func (s *Store) Put(c Coord, r *model.Reservation) error {
	if !s.Contains(c) {
		return fmt.Errorf("put %s: %w", c.Key(), ErrOutOfGrid)
	}
	s.cells[c.Week][c.Day][c.Slot] = r
	return nil
}

// Clear empties the cell.
func (s *Store) Clear(c Coord) error {
	return s.Put(c, nil)
}

// ReplaceDay resets one day and fills it from reservations that start on that day.
// Reservations for other days are reported as out of window.
func (s *Store) ReplaceDay(dayKey string, reservations []*model.Reservation) ([]Dropped, error) {
	week, ok := s.weekFor[dayKey]
	if !ok {
		return nil, fmt.Errorf("replace day %s: %w", dayKey, ErrOutOfGrid)
	}

	fresh := make([]*model.Reservation, s.layout.SlotCount())
	var dropped []Dropped
	for _, r := range reservations {
		c, reason, ok := s.Locate(r)
		switch {
		case !ok:
			dropped = append(dropped, Dropped{Reservation: r, Reason: reason})
		case c.Day != dayKey:
			dropped = append(dropped, Dropped{Reservation: r, Reason: DropOutOfWindow})
		default:
			fresh[c.Slot] = r
		}
	}
	s.cells[week][dayKey] = fresh
	return dropped, nil
}

// Day returns a copy of the day's cells.
func (s *Store) Day(week int, dayKey string) []*model.Reservation {
	slots, ok := s.cells[week][dayKey]
	if !ok {
		return make([]*model.Reservation, s.layout.SlotCount())
	}
	return append([]*model.Reservation(nil), slots...)
}

// WeekOf returns the week index holding the day.
func (s *Store) WeekOf(dayKey string) (int, bool) {
	w, ok := s.weekFor[dayKey]
	return w, ok
}

func (s *Store) Weeks() []timegrid.Week {
	return s.weeks
}

// Count returns the number of occupied cells.
func (s *Store) Count() int {
	n := 0
	for _, days := range s.cells {
		for _, slots := range days {
			for _, r := range slots {
				if r != nil {
					n++
				}
			}
		}
	}
	return n
}

// Find returns the coordinate currently holding the reservation id.
func (s *Store) Find(id string) (Coord, bool) {
	for w, days := range s.cells {
		for day, slots := range days {
			for i, r := range slots {
				if r != nil && r.ID == id {
					return Coord{Week: w, Day: day, Slot: i}, true
				}
			}
		}
	}
	return Coord{}, false
}
