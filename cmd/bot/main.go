package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/drivingschool_bot/internal/app"
	"github.com/Freeeeeet/drivingschool_bot/internal/auth"
	"github.com/Freeeeeet/drivingschool_bot/internal/config"
	"github.com/Freeeeeet/drivingschool_bot/internal/controller"
	"github.com/Freeeeeet/drivingschool_bot/internal/gateway"
	"github.com/Freeeeeet/drivingschool_bot/internal/repository"
	"github.com/Freeeeeet/drivingschool_bot/internal/schedule"
	"github.com/Freeeeeet/drivingschool_bot/internal/service"
	"github.com/Freeeeeet/drivingschool_bot/internal/timegrid"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.EnvFileLoaded {
		logger.Info("No .env file found, using the environment only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	layout, err := timegrid.NewLayout(timegrid.DefaultSlotLabels, timegrid.DefaultBreaks, cfg.SlotDuration)
	if err != nil {
		return err
	}

	events := auth.NewEvents()
	client := gateway.NewClient(cfg.BackendRoot, cfg.HTTPTimeout, events, logger)

	sessions := service.NewSessionService(
		repository.NewSessionRepository(pool),
		client,
		client,
		events,
		schedule.Options{
			Layout:              layout,
			DefaultInstructorID: cfg.DefaultInstructorID,
			CancelCutoff:        cfg.CancelCutoff,
			NoticeTTL:           cfg.NoticeTTL,
			ShiftAfterFriday:    cfg.ShiftAfterFriday,
		},
		logger,
	)
	defer sessions.Close()

	b, err := bot.New(cfg.TelegramToken, bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
		logger.Debug("Unhandled update", zap.Int64("update_id", update.ID))
	}))
	if err != nil {
		return err
	}

	botController := controller.NewBotController(b, sessions, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Failed to register command menu", zap.Error(err))
	}

	scheduler := app.NewScheduler(sessions, botController.RefreshSchedule, cfg.IdleTimeout, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Starting driving school bot",
		zap.String("backend", cfg.BackendRoot),
		zap.Duration("slot_duration", cfg.SlotDuration),
		zap.Duration("cancel_cutoff", cfg.CancelCutoff),
		zap.Bool("shift_after_friday", cfg.ShiftAfterFriday),
		zap.Time("started_at", time.Now()))

	return botController.Start(ctx)
}
