package keyboard

import "github.com/go-telegram/bot/models"

// MaxRowWidth is the widest row Telegram renders; wider rows are wrapped.
const MaxRowWidth = 8

// Builder assembles an inline keyboard.
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// Row appends buttons as one row, wrapping after MaxRowWidth. No buttons, no row.
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	for len(buttons) > MaxRowWidth {
		b.rows = append(b.rows, buttons[:MaxRowWidth:MaxRowWidth])
		buttons = buttons[MaxRowWidth:]
	}
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Table appends rows × cols buttons, asking cell for each position row by row.
func (b *Builder) Table(rows, cols int, cell func(row, col int) models.InlineKeyboardButton) *Builder {
	for r := 0; r < rows; r++ {
		line := make([]models.InlineKeyboardButton, cols)
		for c := range line {
			line[c] = cell(r, c)
		}
		b.Row(line...)
	}
	return b
}

// Rows is the number of rows added so far.
func (b *Builder) Rows() int {
	return len(b.rows)
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	rows := b.rows
	if rows == nil {
		rows = [][]models.InlineKeyboardButton{}
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
