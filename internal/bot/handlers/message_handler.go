package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMessageHandler returns the default handler for plain (non-command)
// messages: the question flow.
func NewMessageHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		log.DebugContext(ctx, "Ignoring update without text or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	reply := h.deps.Router.HandleMessage(ctx, msg)
	if reply == nil {
		return
	}

	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, reply)
	if reply.Answer != "" {
		archiveExchange(ctx, h.deps, msg, msg.Text, reply.Answer)
	}
}
