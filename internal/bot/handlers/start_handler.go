package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStartHandler returns a handler for the /start command: the greeting
// for known users, the rejection notice for everyone else.
func NewStartHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update without message or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	log.InfoContext(ctx, "Handling /start", "chat_id", msg.ChatID, "user_id", msg.UserID)

	reply := h.deps.Router.Greet(msg)
	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, reply)
}
