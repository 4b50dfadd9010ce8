package model

import "time"

// SessionRecord is a signed-in Telegram user as persisted between bot restarts.
type SessionRecord struct {
	TelegramID int64
	Token      string
	User       User
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
