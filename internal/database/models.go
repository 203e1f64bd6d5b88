package database

import "time"

// Message directions in the archive.
const (
	DirectionQuestion = "question"
	DirectionAnswer   = "answer"
)

// Message is one archived side of an exchange: the user's question or the
// bot's answer. The archive exists for auditing and retention only; the
// live conversation context comes from the in-memory store.
type Message struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	MessageID int       `db:"message_id"`
	Direction string    `db:"direction"`
	Content   string    `db:"content"`
	Timestamp time.Time `db:"timestamp"`
}
