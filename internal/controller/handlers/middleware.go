package handlers

import (
	"context"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireSchedule returns the sender's schedule, or replies with the reason it is unavailable.
func (h *Handlers) requireSchedule(ctx context.Context, b *bot.Bot, update *models.Update) (*schedule.Controller, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	ctrl, err := h.sessions.Controller(ctx, telegramID)
	if err != nil {
		h.logger.Warn("Schedule unavailable",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return nil, false
	}

	return ctrl, true
}
