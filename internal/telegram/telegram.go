// Package telegram constructs the Telegram bot client and registers its
// handlers and command menu.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/humblebot/humblebot/internal/bot/handlers"
)

// NewTelegramBot creates the bot client for token with the given options.
func NewTelegramBot(token string, log *slog.Logger, opts ...tgbot.Option) (*tgbot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	tg, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log.Info("Telegram bot client created")
	return tg, nil
}

// RegisterHandlers attaches every command handler, wrapping it in its
// middleware chain.
func RegisterHandlers(tg *tgbot.Bot, log *slog.Logger, cmdHandlers map[string]handlers.RegisteredHandler) error {
	if tg == nil {
		return fmt.Errorf("telegram bot is nil")
	}

	for name, h := range cmdHandlers {
		fn := h.Handler
		for i := len(h.Middleware) - 1; i >= 0; i-- {
			fn = h.Middleware[i](fn)
		}
		tg.RegisterHandler(h.HandlerType, h.Pattern, h.MatchType, fn)
		log.Debug("Registered handler", "command", name)
	}

	log.Info("Telegram handlers registered", "count", len(cmdHandlers))
	return nil
}

// RegisterBotCommands publishes the command menu shown by the Telegram
// client.
func RegisterBotCommands(ctx context.Context, tg *tgbot.Bot, log *slog.Logger, cmdHandlers map[string]handlers.RegisteredHandler) error {
	commands := make([]models.BotCommand, 0, len(cmdHandlers))
	for name, h := range cmdHandlers {
		if h.Description == "" {
			continue
		}
		commands = append(commands, models.BotCommand{
			Command:     strings.TrimPrefix(name, "/"),
			Description: h.Description,
		})
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Command < commands[j].Command })

	ok, err := tg.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands})
	if err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	if !ok {
		return fmt.Errorf("telegram rejected the bot command list")
	}

	log.Info("Bot command menu registered", "count", len(commands))
	return nil
}
