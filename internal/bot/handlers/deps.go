package handlers

import (
	"log/slog"

	"github.com/humblebot/humblebot/internal/access"
	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/conversation"
	"github.com/humblebot/humblebot/internal/database"
	"github.com/humblebot/humblebot/internal/router"
)

// HandlerDeps provides dependencies for the Telegram handlers.
type HandlerDeps struct {
	Logger        *slog.Logger
	Config        *config.Config
	Registry      *config.Registry
	Filter        *access.Filter
	Store         database.Store
	Conversations *conversation.Store
	Router        *router.Router
}
