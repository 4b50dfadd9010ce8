// Package calendar handles the buttons of the schedule message.
package calendar

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleSlot books or cancels the pressed cell.
func HandleSlot(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	dayKey, slot, err := common.ParseSlotCallback(callback.Data)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	common.WithSchedule(ctx, b, callback, h, func(hc *common.HandlerContext) {
		outcome, err := hc.Schedule.Click(hc.Ctx, dayKey, slot)

		h.Logger.Info("Slot pressed",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.String("day", dayKey),
			zap.Int("slot", slot),
			zap.String("outcome", string(outcome)))

		switch outcome {
		case schedule.OutcomeBooked:
			hc.Answer("✅ Booked")
		case schedule.OutcomeCancelled:
			hc.Answer("✅ Cancelled")
		case schedule.OutcomeBusy:
			hc.Answer("⏳ Already in progress")
		case schedule.OutcomeIgnored:
			if err != nil {
				hc.AnswerAlert(common.ErrorMessage(err))
			} else {
				hc.Answer("")
			}
		default:
			hc.Answer(common.ErrorMessage(err))
		}

		redraw(hc)
	})
}

// HandleNavigation moves one week back or forward.
func HandleNavigation(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler, forward bool) {
	common.WithSchedule(ctx, b, callback, h, func(hc *common.HandlerContext) {
		move := hc.Schedule.Previous
		if forward {
			move = hc.Schedule.Next
		}

		moved, err := move(hc.Ctx)
		if err != nil && !errors.Is(err, schedule.ErrSuperseded) {
			h.Logger.Warn("Week load failed",
				zap.Int64("telegram_id", hc.TelegramID),
				zap.Error(err))
		}
		if !moved {
			hc.Answer("")
			return
		}

		hc.Answer("")
		redraw(hc)
	})
}

// HandleRefresh refetches the visible weeks.
func HandleRefresh(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSchedule(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if err := hc.Schedule.Reload(hc.Ctx); err != nil && !errors.Is(err, schedule.ErrSuperseded) {
			h.Logger.Warn("Reload failed",
				zap.Int64("telegram_id", hc.TelegramID),
				zap.Error(err))
			hc.Answer(common.ErrorMessage(err))
		} else {
			hc.Answer("🔄 Updated")
		}
		redraw(hc)
	})
}

func HandleDismiss(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSchedule(ctx, b, callback, h, func(hc *common.HandlerContext) {
		hc.Schedule.Dismiss()
		hc.Answer("")
		redraw(hc)
	})
}

func HandleWeekImage(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithSchedule(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if err := hc.SendWeekImage(); err != nil {
			common.HandleError(hc, err, "week_image")
			return
		}
		hc.Answer("")
	})
}

// HandleBlockDay blocks every free slot of a day for the instructor.
func HandleBlockDay(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	dayKey, err := common.ParseDayCallback(callback.Data)
	if err != nil {
		common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
		return
	}

	common.WithStaff(ctx, b, callback, h, func(hc *common.HandlerContext) {
		// the block can take a while; answer now so the button stops spinning
		hc.Answer("⏳ Blocking the day...")

		res, err := hc.Schedule.BlockDay(hc.Ctx, dayKey)
		if err != nil {
			h.Logger.Warn("Block day finished with errors",
				zap.Int64("telegram_id", hc.TelegramID),
				zap.String("day", dayKey),
				zap.Error(err))
		} else {
			h.Logger.Info("Day blocked",
				zap.Int64("telegram_id", hc.TelegramID),
				zap.String("day", dayKey),
				zap.String("result", fmt.Sprintf("%d/%d", res.Blocked, res.Requested)))
		}

		redraw(hc)
	})
}

func redraw(hc *common.HandlerContext) {
	if err := hc.ShowSchedule(); err != nil {
		hc.Handler.Logger.Error("Failed to redraw schedule",
			zap.Int64("telegram_id", hc.TelegramID),
			zap.Error(err))
	}
}
