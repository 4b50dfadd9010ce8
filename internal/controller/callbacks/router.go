package callbacks

import (
	"context"
	"strings"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/calendar"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common/keyboard"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ========================
// Main Callback Router
// ========================

// Route dispatches a callback query by its data. Formats are defined in the keyboard package.
func Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	data := callback.Data

	switch {
	case data == keyboard.Noop:
		common.HandleNoop(ctx, b, callback)
	case data == keyboard.Login:
		common.HandleLoginButton(ctx, b, callback, h)

	// ===== Schedule =====
	case strings.HasPrefix(data, keyboard.PrefixSlot):
		calendar.HandleSlot(ctx, b, callback, h)
	case data == keyboard.NavPrev:
		calendar.HandleNavigation(ctx, b, callback, h, false)
	case data == keyboard.NavNext:
		calendar.HandleNavigation(ctx, b, callback, h, true)
	case data == keyboard.Refresh:
		calendar.HandleRefresh(ctx, b, callback, h)
	case data == keyboard.Dismiss:
		calendar.HandleDismiss(ctx, b, callback, h)
	case data == keyboard.WeekImage:
		calendar.HandleWeekImage(ctx, b, callback, h)

	// ===== Staff =====
	case strings.HasPrefix(data, keyboard.PrefixBlockDay):
		calendar.HandleBlockDay(ctx, b, callback, h)

	default:
		h.Logger.Warn("Unknown callback data",
			zap.String("data", data),
			zap.Int64("user_id", callback.From.ID))
		common.AnswerCallback(ctx, b, callback.ID, "❌ Unknown action")
	}
}
