package handlers

import (
	"context"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/humblebot/humblebot/internal/router"
)

// NewResetHandler returns a handler for the /reset command: it clears
// every in-memory conversation session and empties the message archive.
func NewResetHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return resetHandler{deps}.Handle
}

type resetHandler struct {
	deps HandlerDeps
}

func (h resetHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "reset")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Reset handler received update without message or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	log.InfoContext(ctx, "Admin requested reset", "chat_id", msg.ChatID, "user_id", msg.UserID)

	sessions := h.deps.Conversations.Reset()

	dbCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := h.deps.Store.DeleteAllMessages(dbCtx); err != nil {
		log.ErrorContext(ctx, "Failed to clear the message archive", "error", err, "chat_id", msg.ChatID)
		sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, &router.Reply{
			Text: "⚠️ Cleared the conversation sessions, but the message archive could not be emptied.",
		})
		return
	}

	log.InfoContext(ctx, "Reset finished", "sessions_cleared", sessions)
	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, &router.Reply{Text: h.deps.Config.Messages.HistoryReset})
}
