package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Commands\n\n" +
	"/login - Sign in with your driving school account\n" +
	"/schedule - Open the weekly calendar\n" +
	"/week - Picture of the current week\n" +
	"/logout - Sign out\n" +
	"/cancel - Stop the current dialog\n" +
	"/help - This help\n\n" +
	"Learners tap a free time to book a lesson and tap their own lesson to cancel it. " +
	"Instructors tap a free time to block it and can block a whole day at once."

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	session, err := h.sessions.Session(ctx, from.ID)
	if err != nil && !errors.Is(err, auth.ErrNoSession) {
		h.logger.Error("Failed to read session", zap.Int64("telegram_id", from.ID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	if session == nil {
		text := fmt.Sprintf("👋 Hi, %s!\n\n"+
			"This bot books driving lessons. Sign in with the account of your driving school to see the calendar.",
			html.EscapeString(from.FirstName))
		h.sendMessage(ctx, b, update.Message.Chat.ID, text, keyboard.NewBuilder().Row(keyboard.LoginButton()).Build())
		return
	}

	text := fmt.Sprintf("👋 Welcome back, %s!\n\nOpen the calendar with /schedule or see /help.",
		html.EscapeString(session.User.DisplayName()))
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleSchedule posts the calendar of the current week.
func (h *Handlers) HandleSchedule(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctrl, ok := h.requireSchedule(ctx, b, update)
	if !ok {
		return
	}

	h.sendSchedule(ctx, b, update.Message.Chat.ID, update.Message.From.ID, ctrl)
}

// HandleWeek sends the current week as a picture.
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	ctrl, ok := h.requireSchedule(ctx, b, update)
	if !ok {
		return
	}

	v := ctrl.View()
	data, err := common.RenderWeekImage(v, time.Now())
	if err != nil {
		h.logger.Error("Failed to render week image", zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  update.Message.Chat.ID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(data)},
		Caption: v.WeekLabel,
	})
	if err != nil {
		h.logger.Error("Failed to send week image", zap.Error(err))
	}
}

func (h *Handlers) HandleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	h.stateManager.Reset(telegramID)
	h.screens.Forget(telegramID)

	if err := h.sessions.Logout(ctx, telegramID); err != nil {
		h.logger.Error("Failed to sign out", zap.Int64("telegram_id", telegramID), zap.Error(err))
		h.sendError(ctx, b, update.Message.Chat.ID, common.ErrorMessage(err))
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, "👋 Signed out. Use /login to sign in again.", nil)
}

// HandleCancel stops the current dialog.
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.Step(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "Nothing to cancel.", nil)
		return
	}

	h.stateManager.Reset(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Cancelled.\n\nSee /help for the commands.", nil)
}

// HandleTextMessage feeds plain text into the user's current dialog.
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	// commands have their own handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.Step(telegramID)

	switch currentState {
	case state.StateNone:
		h.logger.Debug("No active dialog, ignoring message", zap.Int64("telegram_id", telegramID))
	case state.StateAwaitingEmail:
		h.handleLoginEmailStep(ctx, b, update)
	case state.StateAwaitingPassword:
		h.handleLoginPasswordStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.Reset(telegramID)
	}
}
