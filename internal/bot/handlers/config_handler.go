package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/router"
)

// NewConfigHandler returns a handler for the /config command. Zero
// arguments lists every setting, one argument views a property, two
// change it. Admin gating happens in the AdminOnly middleware.
func NewConfigHandler(deps HandlerDeps) tgbot.HandlerFunc {
	return configHandler{deps}.Handle
}

type configHandler struct {
	deps HandlerDeps
}

func (h configHandler) Handle(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "config")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Config handler received update without message or sender", "update_id", update.ID)
		return
	}

	msg := routerMessage(update.Message)
	log.InfoContext(ctx, "Handling /config", "chat_id", msg.ChatID, "user_id", msg.UserID)

	reply := BuildConfigReply(h.deps.Registry, msg.Text)
	sendReply(ctx, b, h.deps, msg.ChatID, msg.ID, &router.Reply{Text: reply})
}

// BuildConfigReply parses the /config command text and runs it against the
// registry, returning the reply text. Split out from the handler so the
// whole admin surface is testable without a Telegram client.
func BuildConfigReply(reg *config.Registry, msgText string) string {
	args := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(msgText), "/config"))
	// In group chats the command may arrive as /config@botname.
	if strings.HasPrefix(args, "@") {
		_, rest, _ := strings.Cut(args, " ")
		args = strings.TrimSpace(rest)
	}

	if args == "" {
		return listSettings(reg)
	}

	path, raw, _ := strings.Cut(args, " ")
	raw = strings.TrimSpace(raw)

	if raw == "" {
		value, err := reg.Get(path)
		if errors.Is(err, config.ErrUnknownKey) {
			return fmt.Sprintf("✗ Unknown property: `%s`", path)
		}
		return fmt.Sprintf("`%s`", value)
	}

	outcome, err := reg.Set(path, raw)
	if err != nil {
		var invalid *config.InvalidValueError
		switch {
		case errors.Is(err, config.ErrUnknownKey):
			return fmt.Sprintf("✗ Unknown property: `%s`", path)
		case errors.As(err, &invalid):
			return fmt.Sprintf("✗ Invalid value for the `%s` property: %v", path, invalid.Reason)
		default:
			return fmt.Sprintf("✗ %v", err)
		}
	}

	switch outcome.Result {
	case config.ResultUnchanged:
		return fmt.Sprintf("✗ The `%s` property already equals to `%s`", path, outcome.New)
	case config.ResultRestartRequired:
		return fmt.Sprintf(
			"✓ Changed the `%s` property from `%s` to `%s`\n\nRestart the bot for the change to take effect.",
			path, outcome.Old, outcome.New,
		)
	default:
		return fmt.Sprintf("✓ Changed the `%s` property from `%s` to `%s`", path, outcome.Old, outcome.New)
	}
}

func listSettings(reg *config.Registry) string {
	var b strings.Builder
	b.WriteString("Syntax:\n")
	b.WriteString("/config <path> - view the property\n")
	b.WriteString("/config <path> <value> - change the property\n\n")
	b.WriteString("Settings:\n")
	for _, entry := range reg.List() {
		fmt.Fprintf(&b, "`%s` = `%s` (%s", entry.Path, entry.Value, entry.Type)
		if entry.Restart {
			b.WriteString(", restart required")
		}
		b.WriteString(")\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
