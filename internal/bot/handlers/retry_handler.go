package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewRetryHandler returns a handler for the /retry command. It re-asks the
// sender's most recent question; with no stored history it stays silent.
func NewRetryHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return retryHandler{deps}.Handle
}

type retryHandler struct {
	deps HandlerDeps
}

func (h retryHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "retry")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Retry handler received update without message or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	log.InfoContext(ctx, "Handling /retry", "chat_id", msg.ChatID, "user_id", msg.UserID)

	reply := h.deps.Router.Retry(ctx, msg)
	if reply == nil {
		return
	}

	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, reply)
	if reply.Answer != "" {
		archiveExchange(ctx, h.deps, msg, reply.Question, reply.Answer)
	}
}
