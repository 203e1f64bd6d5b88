package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the archive operations. Methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveExchange archives both sides of a resolved exchange in one
	// transaction.
	SaveExchange(ctx context.Context, question, answer *Message) error

	// DeleteMessagesBefore removes archived messages with a timestamp
	// before cutoff and returns how many were deleted.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteAllMessages empties the archive (used by the reset command).
	DeleteAllMessages(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance such as VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

const insertMessageQuery = `
	INSERT INTO messages (created_at, chat_id, user_id, message_id, direction, content, timestamp)
	VALUES (:created_at, :chat_id, :user_id, :message_id, :direction, :content, :timestamp)`

func (s *sqlxStore) SaveExchange(ctx context.Context, question, answer *Message) error {
	now := time.Now().UTC()
	question.CreatedAt = now
	answer.CreatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
	}()

	if _, err := tx.NamedExecContext(ctx, insertMessageQuery, question); err != nil {
		return fmt.Errorf("failed to archive question: %w", err)
	}
	if _, err := tx.NamedExecContext(ctx, insertMessageQuery, answer); err != nil {
		return fmt.Errorf("failed to archive answer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	s.logger.DebugContext(ctx, "Archived exchange", "chat_id", question.ChatID, "message_id", question.MessageID)
	return nil
}

func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old messages: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted messages: %w", err)
	}
	if deleted > 0 {
		s.logger.InfoContext(ctx, "Deleted archived messages", "cutoff", cutoff, "count", deleted)
	}
	return deleted, nil
}

func (s *sqlxStore) DeleteAllMessages(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to delete all messages: %w", err)
	}
	s.logger.InfoContext(ctx, "Deleted all archived messages")
	return nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA optimize`); err != nil {
		return fmt.Errorf("pragma optimize failed: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance finished", "duration", time.Since(start))
	return nil
}
