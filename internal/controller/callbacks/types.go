package callbacks

import (
	"context"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Handler with Dependencies
// ========================

// Handler wraps callbacktypes.Handler with the entry point registered on the bot.
type Handler struct {
	*callbacktypes.Handler
}

func NewHandler(
	sessions callbacktypes.Sessions,
	stateManager *state.Manager,
	screens *state.Screens,
	logger *zap.Logger,
) *Handler {
	return &Handler{Handler: &callbacktypes.Handler{
		Sessions:     sessions,
		StateManager: stateManager,
		Screens:      screens,
		Logger:       logger,
	}}
}

// HandleCallbackQuery is the bot handler for every inline button press.
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery

	h.Logger.Debug("Callback received",
		zap.String("data", callback.Data),
		zap.Int64("user_id", callback.From.ID),
	)

	Route(ctx, b, callback, h.Handler)
}
