package common

import (
	"context"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ========================
// Common Navigation Handlers
// ========================

// LoginPrompt is the first step of the sign-in dialog.
const LoginPrompt = "🔑 Sign in to the driving school\n\n" +
	"Step 1 of 2: send your email address.\n\n" +
	"Use /cancel to stop."

// HandleNoop acknowledges label-only buttons.
func HandleNoop(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	AnswerCallback(ctx, b, callback.ID, "")
}

// HandleLoginButton starts the sign-in dialog from the welcome screen.
func HandleLoginButton(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	hc := NewHandlerContext(ctx, b, callback, h)
	if hc.Message == nil {
		hc.AnswerAlert(ErrorMessage(ErrNoMessage))
		return
	}

	h.StateManager.Begin(hc.TelegramID, state.StateAwaitingEmail)

	if err := hc.SendMessage(LoginPrompt, nil); err != nil {
		HandleError(hc, err, "login_prompt")
		return
	}
	hc.Answer("")
}
