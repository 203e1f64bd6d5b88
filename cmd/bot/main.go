// Package main contains the entrypoint for the Telegram bot application.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/humblebot/humblebot/internal/access"
	"github.com/humblebot/humblebot/internal/bot"
	"github.com/humblebot/humblebot/internal/bot/handlers"
	"github.com/humblebot/humblebot/internal/bot/tasks"
	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/conversation"
	"github.com/humblebot/humblebot/internal/database"
	"github.com/humblebot/humblebot/internal/gemini"
	"github.com/humblebot/humblebot/internal/logger"
	"github.com/humblebot/humblebot/internal/router"
	"github.com/humblebot/humblebot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db, access filter,
// settings registry, ai client, router, bot, scheduler), handles graceful shutdown, and
// returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	filter := access.NewFilter(cfg.Telegram.Usernames, cfg.Telegram.Admins, cfg.Telegram.ChatIDs)
	registry := config.NewRegistry(cfg, filter)
	conversations := conversation.NewStore(cfg.Conversation.MaxHistoryDepth)

	asker, err := gemini.NewClient(ctx, cfg.Gemini, func() string {
		return registry.String(config.PathGeminiModel)
	}, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}
	// Note: Gemini client does not have an explicit Close method in the SDK used.

	deps := handlers.HandlerDeps{
		Logger:        log,
		Config:        cfg,
		Registry:      registry,
		Filter:        filter,
		Store:         store,
		Conversations: conversations,
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log), handlers.Recover(deps)),
		// deps.Router is assigned after GetMe below; the closure reads the
		// variable on every update, so the late assignment is visible here.
		tgbot.WithDefaultHandler(func(hctx context.Context, b *tgbot.Bot, update *models.Update) {
			handlers.NewMessageHandler(deps)(hctx, b, update)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	rtr := router.New(log, asker, conversations, filter, registry, cfg.Messages, cfg.Telegram.BotInfo.Username)
	rtr.SetTyping(func(tctx context.Context, chatID int64) {
		_, _ = tg.SendChatAction(tctx, &tgbot.SendChatActionParams{
			ChatID: chatID,
			Action: models.ChatActionTyping,
		})
	})
	deps.Router = rtr

	cmdHandlers := handlers.RegisterAllCommands(deps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}
	if err := telegram.RegisterBotCommands(ctx, tg, log, cmdHandlers); err != nil {
		log.Warn("Failed to register bot command menu", "error", err)
	}

	tDeps := tasks.TaskDeps{
		Logger:   log,
		Store:    store,
		Registry: registry,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	return 0
}
