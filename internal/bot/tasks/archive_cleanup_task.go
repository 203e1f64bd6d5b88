package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/humblebot/humblebot/internal/config"
)

// newArchiveCleanupTask creates the task that deletes archived messages
// older than the configured retention window. The window is read from the
// registry on every run, so a runtime change applies to the next run
// without a restart. Zero retention disables the cleanup.
func newArchiveCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "archive_cleanup")

	return func(ctx context.Context) error {
		days := deps.Registry.Int(config.PathRetentionDays)
		if days <= 0 {
			log.DebugContext(ctx, "Retention disabled, skipping cleanup")
			return nil
		}

		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		deleted, err := deps.Store.DeleteMessagesBefore(ctx, cutoff)
		if err != nil {
			log.ErrorContext(ctx, "Archive cleanup failed", "error", err)
			return fmt.Errorf("archive cleanup failed: %w", err)
		}

		log.InfoContext(ctx, "Archive cleanup finished", "retention_days", days, "deleted", deleted)
		return nil
	}
}
