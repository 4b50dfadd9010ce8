package keyboard

import "github.com/go-telegram/bot/models"

// NoopButton is a label-only button.
func NoopButton(text string) models.InlineKeyboardButton {
	return Button(text, Noop)
}

// WeekNavRow builds the ◀ Previous / refresh / Next ▶ row. Disabled directions are
// rendered blank and do nothing.
func WeekNavRow(canPrev, canNext bool) []models.InlineKeyboardButton {
	prev := NoopButton(" ")
	if canPrev {
		prev = Button("◀ Previous", NavPrev)
	}
	next := NoopButton(" ")
	if canNext {
		next = Button("Next ▶", NavNext)
	}
	return []models.InlineKeyboardButton{prev, Button("🔄", Refresh), next}
}

func (b *Builder) AddWeekNav(canPrev, canNext bool) *Builder {
	return b.Row(WeekNavRow(canPrev, canNext)...)
}

func WeekImageButton() models.InlineKeyboardButton {
	return Button("🖼 Picture", WeekImage)
}

func DismissButton() models.InlineKeyboardButton {
	return Button("✖ Hide notice", Dismiss)
}

func LoginButton() models.InlineKeyboardButton {
	return Button("🔑 Sign in", Login)
}
