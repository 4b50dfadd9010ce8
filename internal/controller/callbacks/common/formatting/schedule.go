package formatting

import (
	"github.com/Freeeeeet/drivingschool_bot/internal/model"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
)

const (
	glyphBreak   = "☕"
	glyphPast    = "·"
	glyphBlocked = "⛔"
	glyphBooked  = "🔴"
	glyphMine    = "🟢"
	glyphOwned   = "🚗"
	glyphBusy    = "⏳"
)

// CellText is the button caption of a grid cell.
func CellText(cell schedule.CellView) string {
	if cell.Busy {
		return glyphBusy
	}

	switch cell.Decision.Visual {
	case permission.VisualBreak:
		return glyphBreak
	case permission.VisualPast:
		return glyphPast
	case permission.VisualBlocked:
		return glyphBlocked
	case permission.VisualBooked:
		return glyphBooked
	case permission.VisualMine:
		return glyphMine
	case permission.VisualOwned:
		return glyphOwned
	default:
		return ShortLabel(cell.Decision.Label)
	}
}

// Legend explains the glyphs and what a tap does for the role.
func Legend(role model.Role) string {
	switch role {
	case model.RoleAdmin:
		return glyphBooked + " booked  " + glyphBlocked + " blocked  " + glyphBreak + " break\n" +
			"Tap a time to block it. Tap a booked or blocked cell to cancel it."
	case model.RoleInstructor:
		return glyphOwned + " your lesson  " + glyphBooked + " taken  " + glyphBlocked + " blocked  " + glyphBreak + " break\n" +
			"Tap a time to block it. Tap " + glyphBlocked + " or " + glyphOwned + " to free it."
	default:
		return glyphMine + " your lesson  " + glyphBooked + " taken  " + glyphBlocked + " unavailable  " + glyphBreak + " break\n" +
			"Tap a time to book it. Tap " + glyphMine + " to cancel."
	}
}

// NoticePrefix is the emoji shown in front of a notice.
func NoticePrefix(level schedule.Level) string {
	switch level {
	case schedule.LevelSuccess:
		return "✅"
	case schedule.LevelWarning:
		return "⚠️"
	default:
		return "❌"
	}
}
