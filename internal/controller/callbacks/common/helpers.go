package common

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AnswerCallback answers a callback query with a toast.
func AnswerCallback(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       false,
	})
}

// AnswerCallbackAlert answers a callback query with a modal alert.
func AnswerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID string, text string) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
}

// GetMessageFromCallback returns the message the button belongs to, if still accessible.
func GetMessageFromCallback(callback *models.CallbackQuery) *models.Message {
	if callback.Message.Message != nil {
		return callback.Message.Message
	}
	return nil
}

// IsMessageNotModifiedError reports Telegram's refusal to apply an edit that changes nothing.
func IsMessageNotModifiedError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

// ParseSlotCallback splits "slot:2026-10-16:3" into the day key and slot index.
func ParseSlotCallback(data string) (string, int, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	if _, err := timegrid.ParseDayKey(parts[1]); err != nil {
		return "", 0, fmt.Errorf("%w: day %q", ErrInvalidFormat, parts[1])
	}
	slot, err := strconv.Atoi(parts[2])
	if err != nil || slot < 0 {
		return "", 0, fmt.Errorf("%w: slot %q", ErrInvalidFormat, parts[2])
	}
	return parts[1], slot, nil
}

// ParseDayCallback extracts the day key from "block_day:2026-10-16".
func ParseDayCallback(data string) (string, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, data)
	}
	if _, err := timegrid.ParseDayKey(parts[1]); err != nil {
		return "", fmt.Errorf("%w: day %q", ErrInvalidFormat, parts[1])
	}
	return parts[1], nil
}
