package handlers

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendSchedule posts a fresh schedule message and makes it the one background
// refreshes edit.
func (h *Handlers) sendSchedule(ctx context.Context, b *bot.Bot, chatID, telegramID int64, ctrl *schedule.Controller) {
	text, kb := common.RenderSchedule(ctrl.View())

	msg, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: kb,
	})
	if err != nil {
		h.logger.Error("Failed to send schedule",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		return
	}

	h.screens.Remember(telegramID, state.Screen{ChatID: chatID, MessageID: msg.ID})
}

// validateEmail normalizes the address or returns the text explaining what is wrong.
func validateEmail(raw string) (string, string) {
	email := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case email == "":
		return "", "❌ Please send your email address."
	case utf8.RuneCountInString(email) > EmailMaxLength:
		return "", "❌ This address is too long."
	case !emailRegex.MatchString(email):
		return "", "❌ This does not look like an email address. Try again:"
	}
	return email, ""
}
