package controller

import (
	"context"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/handlers"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller/state"
	"github.com/Freeeeeet/drivingschool_bot/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	sessions        *service.SessionService
	screens         *state.Screens
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	sessions *service.SessionService,
	logger *zap.Logger,
) *BotController {
	stateManager := state.NewManager(state.DialogTTL, time.Now)
	screens := state.NewScreens()

	return &BotController{
		bot:             botInstance,
		sessions:        sessions,
		screens:         screens,
		handlers:        handlers.NewHandlers(sessions, stateManager, screens, logger),
		callbackHandler: callbacks.NewHandler(sessions, stateManager, screens, logger),
		logger:          logger,
	}
}

// RegisterHandlers wires commands and callbacks into the bot and publishes the command menu.
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/login", bot.MatchTypeExact, c.handlers.HandleLogin)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/logout", bot.MatchTypeExact, c.handlers.HandleLogout)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/schedule", bot.MatchTypeExact, c.handlers.HandleSchedule)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/week", bot.MatchTypeExact, c.handlers.HandleWeek)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// dialog input
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Start"},
		{Command: "login", Description: "🔑 Sign in"},
		{Command: "schedule", Description: "🗓 Weekly calendar"},
		{Command: "week", Description: "🖼 Picture of the week"},
		{Command: "logout", Description: "👋 Sign out"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// RefreshSchedule redraws the last schedule message of a user, if both are still around.
func (c *BotController) RefreshSchedule(ctx context.Context, telegramID int64) {
	ctrl, ok := c.sessions.Active(telegramID)
	if !ok {
		c.screens.Forget(telegramID)
		return
	}
	screen, ok := c.screens.Get(telegramID)
	if !ok {
		return
	}

	text, kb := common.RenderSchedule(ctrl.View())
	_, err := c.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      screen.ChatID,
		MessageID:   screen.MessageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: kb,
	})
	if err != nil && !common.IsMessageNotModifiedError(err) {
		c.logger.Debug("Failed to refresh schedule message",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
}

func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
