// Package handlers contains the Telegram command and message handlers,
// their registration, and middleware.
package handlers

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// AdminOnly gates a handler behind the admin allow-list. Unauthorized
// senders get the configured rejection notice and processing stops.
func AdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			username := update.Message.From.Username
			if !deps.Filter.AllowedAdmin(username) {
				chatID := update.Message.Chat.ID
				log := deps.Logger.With("middleware", "admin_only")
				log.WarnContext(ctx, "Unauthorized admin command",
					"user_id", update.Message.From.ID, "chat_id", chatID)

				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: chatID,
					Text:   deps.Config.Messages.NotAuthorized,
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to send unauthorized notice", "error", err, "chat_id", chatID)
				}
				return
			}

			next(ctx, b, update)
		}
	}
}

// Recover traps panics during update handling and reports them back into
// the originating chat as a warning-prefixed notice instead of crashing
// the process.
func Recover(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				log := deps.Logger.With("middleware", "recover")
				log.ErrorContext(ctx, "Recovered from panic in handler", "panic", r)

				if update.Message == nil {
					return
				}
				_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
					ChatID: update.Message.Chat.ID,
					Text:   fmt.Sprintf("⚠️ %v", r),
				})
				if err != nil {
					log.ErrorContext(ctx, "Failed to report error to chat", "error", err)
				}
			}()

			next(ctx, b, update)
		}
	}
}
