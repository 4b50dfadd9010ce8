package common

import (
	"bytes"
	"context"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// HandlerContext bundles what every callback handler needs: the bot, the pressed message
// and the user's schedule.
type HandlerContext struct {
	Ctx        context.Context
	Bot        *bot.Bot
	Callback   *models.CallbackQuery
	Handler    *callbacktypes.Handler
	Message    *models.Message
	Schedule   *schedule.Controller
	TelegramID int64
	ChatID     int64
}

func NewHandlerContext(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
) *HandlerContext {
	msg := GetMessageFromCallback(callback)
	var chatID int64
	if msg != nil {
		chatID = msg.Chat.ID
	}

	return &HandlerContext{
		Ctx:        ctx,
		Bot:        b,
		Callback:   callback,
		Handler:    h,
		Message:    msg,
		TelegramID: callback.From.ID,
		ChatID:     chatID,
	}
}

// LoadSchedule fetches the user's controller, mounting it on first use.
func (hc *HandlerContext) LoadSchedule() error {
	ctrl, err := hc.Handler.Sessions.Controller(hc.Ctx, hc.TelegramID)
	if err != nil {
		return err
	}
	hc.Schedule = ctrl
	return nil
}

// RequireStaff loads the schedule and checks the user manages availability.
func (hc *HandlerContext) RequireStaff() error {
	if hc.Schedule == nil {
		if err := hc.LoadSchedule(); err != nil {
			return err
		}
	}
	if !hc.Schedule.Identity().Role.IsStaff() {
		return schedule.ErrStaffOnly
	}
	return nil
}

func (hc *HandlerContext) Answer(text string) {
	AnswerCallback(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

func (hc *HandlerContext) AnswerAlert(text string) {
	AnswerCallbackAlert(hc.Ctx, hc.Bot, hc.Callback.ID, text)
}

// EditMessage replaces the text and keyboard of the pressed message.
func (hc *HandlerContext) EditMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	if hc.Message == nil {
		return ErrNoMessage
	}

	_, err := hc.Bot.EditMessageText(hc.Ctx, &bot.EditMessageTextParams{
		ChatID:      hc.ChatID,
		MessageID:   hc.Message.ID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})

	if IsMessageNotModifiedError(err) {
		return nil
	}

	return err
}

func (hc *HandlerContext) SendMessage(text string, keyboard *models.InlineKeyboardMarkup) error {
	_, err := hc.Bot.SendMessage(hc.Ctx, &bot.SendMessageParams{
		ChatID:      hc.ChatID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})

	return err
}

// ShowSchedule redraws the pressed message with the current view of the schedule.
func (hc *HandlerContext) ShowSchedule() error {
	text, kb := RenderSchedule(hc.Schedule.View())
	if err := hc.EditMessage(text, kb); err != nil {
		return err
	}
	hc.Handler.Screens.Remember(hc.TelegramID, state.Screen{ChatID: hc.ChatID, MessageID: hc.Message.ID})
	return nil
}

// SendWeekImage posts the current week as a picture below the schedule.
func (hc *HandlerContext) SendWeekImage() error {
	v := hc.Schedule.View()
	data, err := RenderWeekImage(v, time.Now())
	if err != nil {
		return err
	}

	_, err = hc.Bot.SendPhoto(hc.Ctx, &bot.SendPhotoParams{
		ChatID:  hc.ChatID,
		Photo:   &models.InputFileUpload{Filename: "week.png", Data: bytes.NewReader(data)},
		Caption: v.WeekLabel,
	})
	return err
}
