package timegrid

import (
	"fmt"
	"time"
)

// WallClockLayout is the backend's LocalDateTime format: no zone, no offset.
const WallClockLayout = "2006-01-02T15:04:05"

var wallClockLayouts = []string{
	WallClockLayout,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// FormatWallClock renders t's wall clock without any zone conversion.
func FormatWallClock(t time.Time) string {
	return t.Format(WallClockLayout)
}

// ParseWallClock reads a backend timestamp into local wall-clock time. The hour and minute
// written in the string are the hour and minute of the result; a trailing offset or Z, if
// some backend sends one, is ignored rather than converted.
func ParseWallClock(s string) (time.Time, error) {
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse wall clock %q: %w", s, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local), nil
}
