package common

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/drivingschool_bot/internal/permission"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/go-telegram/bot/models"
)

// RenderSchedule builds the schedule message: a header with the week and the latest notice,
// and a keyboard with one row per slot and one column per weekday.
func RenderSchedule(v schedule.View) (string, *models.InlineKeyboardMarkup) {
	return scheduleText(v), scheduleKeyboard(v)
}

func scheduleText(v schedule.View) string {
	var sb strings.Builder

	sb.WriteString("🗓 <b>" + html.EscapeString(v.WeekLabel) + "</b>")
	if len(v.Days) > 0 {
		kb.Table(1, len(v.Days), func(_, day int) models.InlineKeyboardButton {
			return keyboard.NoopButton(formatting.FormatDayHeader(v.Days[day].Day.Date))
		})
		kb.Table(len(v.Labels), len(v.Days), func(slot, day int) models.InlineKeyboardButton {
			cells := v.Days[day].Cells
			if slot >= len(cells) {
				return keyboard.NoopButton(" ")
			}
			return cellButton(cells[slot])
		})
		if v.Role.IsStaff() {
			kb.Row(blockDayRow(v.Days)...)
		}
	}

	kb.AddWeekNav(v.CanPrev, v.CanNext)

	extra := []models.InlineKeyboardButton{keyboard.WeekImageButton()}
	if v.Notice != nil {
		extra = append(extra, keyboard.DismissButton())
	}
	kb.Row(extra...)

	return kb.Build()
}

func cellButton(cell schedule.CellView) models.InlineKeyboardButton {
	text := formatting.CellText(cell)
	if !cell.Decision.Clickable || cell.Busy {
		return keyboard.NoopButton(text)
	}
	return keyboard.Button(text, keyboard.SlotData(cell.Coord.Day, cell.Coord.Slot))
}

// blockDayRow offers "block the whole day" for every day that still has a free slot.
func blockDayRow(days []schedule.DayView) []models.InlineKeyboardButton {
	row := make([]models.InlineKeyboardButton, 0, len(days))
	for _, d := range days {
		if hasBookable(d) {
			row = append(row, keyboard.Button("⛔ "+d.Day.Date.Format("Mon"), keyboard.BlockDayData(d.Day.Key)))
		} else {
			row = append(row, keyboard.NoopButton(" "))
		}
	}
	return row
}

func hasBookable(d schedule.DayView) bool {
	for _, c := range d.Cells {
		if c.Decision.Action == permission.ActionBook && !c.Busy {
			return true
		}
	}
	return false
}
