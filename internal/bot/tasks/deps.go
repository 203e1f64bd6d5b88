// Package tasks implements the scheduled maintenance tasks.
package tasks

import (
	"log/slog"

	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/database"
)

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Registry *config.Registry
}
