package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/humblebot/humblebot/internal/router"
)

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Help handler received update without message or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, &router.Reply{Text: h.deps.Config.Messages.Help})
}
