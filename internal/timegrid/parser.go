package timegrid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidSlotLabel = errors.New("invalid slot label")

const slotLabelLayout = "3:04 PM"

// SlotTime is a wall-clock hour/minute pair.
type SlotTime struct {
	Hour   int
	Minute int
}

func (s SlotTime) Minutes() int {
	return s.Hour*60 + s.Minute
}

// On returns the slot start on the given calendar date, in the date's location.
func (s SlotTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), s.Hour, s.Minute, 0, 0, date.Location())
}

// Matches reports whether t starts exactly at this slot's hour and minute.
func (s SlotTime) Matches(t time.Time) bool {
	return t.Hour() == s.Hour && t.Minute() == s.Minute
}

// ParseSlotTime parses labels like "10:15 AM". 12 AM is hour 0, 12 PM stays 12.
func ParseSlotTime(label string) (SlotTime, error) {
	t, err := time.Parse(slotLabelLayout, strings.TrimSpace(label))
	if err != nil {
		return SlotTime{}, fmt.Errorf("%w %q: %v", ErrInvalidSlotLabel, label, err)
	}
	return SlotTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FormatSlotTime renders a SlotTime back into the label format.
func FormatSlotTime(s SlotTime) string {
	return time.Date(2000, 1, 1, s.Hour, s.Minute, 0, 0, time.UTC).Format(slotLabelLayout)
}
