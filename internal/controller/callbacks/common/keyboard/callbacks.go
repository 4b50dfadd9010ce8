package keyboard

import "fmt"

// Callback data understood by the router. Data is limited to 64 bytes by Telegram.
const (
	PrefixSlot     = "slot:"      // slot:2026-10-16:3
	PrefixBlockDay = "block_day:" // block_day:2026-10-16

	NavPrev   = "nav:prev"
	NavNext   = "nav:next"
	Refresh   = "refresh"
	Dismiss   = "dismiss"
	WeekImage = "week_image"
	Login     = "login"
	Noop      = "noop"
)

func SlotData(dayKey string, slot int) string {
	return fmt.Sprintf("%s%s:%d", PrefixSlot, dayKey, slot)
}

func BlockDayData(dayKey string) string {
	return PrefixBlockDay + dayKey
}
