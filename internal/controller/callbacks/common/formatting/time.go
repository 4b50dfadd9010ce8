package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
)

func FormatDateTime(t time.Time) string {
	return t.Format("Mon 02 Jan 15:04")
}

func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
}

// FormatDayHeader renders a column header, e.g. "Mon 12".
func FormatDayHeader(t time.Time) string {
	return t.Format("Mon 02")
}

// FormatDateRange renders "12 Oct - 16 Oct 2026", or with both years when they differ.
func FormatDateRange(from, to time.Time) string {
	if from.Year() != to.Year() {
		return fmt.Sprintf("%s - %s", from.Format("02 Jan 2006"), to.Format("02 Jan 2006"))
	}
	return fmt.Sprintf("%s - %s", from.Format("02 Jan"), to.Format("02 Jan 2006"))
}

// FormatDuration renders minutes, e.g. "45 min" or "1 h 30 min".
func FormatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}

// ShortLabel turns a slot label like "1:45 PM" into "13:45". Unparseable labels pass through.
func ShortLabel(label string) string {
	st, err := timegrid.ParseSlotTime(label)
	if err != nil {
		return label
	}
	return fmt.Sprintf("%d:%02d", st.Hour, st.Minute)
}
