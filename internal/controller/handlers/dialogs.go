package handlers

import (
	"context"
	"fmt"
	"html"
	"unicode/utf8"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleLogin starts the two-step sign-in dialog.
func (h *Handlers) HandleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	telegramID := update.Message.From.ID
	h.stateManager.Begin(telegramID, state.StateAwaitingEmail)

	h.sendMessage(ctx, b, update.Message.Chat.ID, common.LoginPrompt, nil)
}

func (h *Handlers) handleLoginEmailStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID

	email, problem := validateEmail(update.Message.Text)
	if problem != "" {
		h.sendError(ctx, b, update.Message.Chat.ID, problem)
		return
	}

	h.stateManager.AcceptEmail(telegramID, email)

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		fmt.Sprintf("✅ Email: %s\n\nStep 2 of 2: send your password. The message is deleted right away.",
			html.EscapeString(email)), nil)
}

func (h *Handlers) handleLoginPasswordStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	chatID := update.Message.Chat.ID
	password := update.Message.Text

	// the password must not stay in the chat history
	if _, err := b.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: update.Message.ID}); err != nil {
		h.logger.Warn("Failed to delete password message", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}

	if utf8.RuneCountInString(password) > PasswordMaxLength {
		h.sendError(ctx, b, chatID, "❌ This password is too long. Try again:")
		return
	}

	email, ok := h.stateManager.Email(telegramID)
	if !ok {
		h.logger.Error("Email missing in sign-in dialog", zap.Int64("telegram_id", telegramID))
		h.stateManager.Reset(telegramID)
		h.sendError(ctx, b, chatID, "❌ Something went wrong. Start again with /login")
		return
	}

	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	session, err := h.sessions.Login(loginCtx, telegramID, email, password)
	if err != nil {
		h.logger.Warn("Sign-in failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		// stay in the password step so the user can retry
		h.sendError(ctx, b, chatID, common.ErrorMessage(err)+"\n\nSend the password again or /cancel.")
		return
	}

	h.stateManager.Reset(telegramID)
	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("✅ Signed in as %s.", html.EscapeString(session.User.DisplayName())), nil)

	ctrl, err := h.sessions.Controller(ctx, telegramID)
	if err != nil {
		h.sendError(ctx, b, chatID, common.ErrorMessage(err))
		return
	}
	h.sendSchedule(ctx, b, chatID, telegramID, ctrl)
}
