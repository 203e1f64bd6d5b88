package handlers

import (
	"bytes"
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/humblebot/humblebot/internal/database"
	"github.com/humblebot/humblebot/internal/router"
)

const (
	sendTimeout    = 10 * time.Second
	archiveTimeout = 5 * time.Second
)

// routerMessage converts a Telegram message into the transport-free view
// the router works on.
func routerMessage(msg *models.Message) router.Message {
	var userID int64
	var username string
	if msg.From != nil {
		userID = msg.From.ID
		username = msg.From.Username
	}
	return router.Message{
		ID:        msg.ID,
		UserID:    userID,
		Username:  username,
		ChatID:    msg.Chat.ID,
		ChatKind:  string(msg.Chat.Type),
		Text:      msg.Text,
		Forwarded: msg.ForwardOrigin != nil,
	}
}

// sendReply delivers a router reply: the text quoted onto the originating
// message, plus the document attachment when the answer did not fit.
func sendReply(ctx context.Context, b *tgbot.Bot, deps HandlerDeps, chatID int64, replyTo int, reply *router.Reply) {
	if reply == nil {
		return
	}
	log := deps.Logger.With("helper", "send_reply")

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := b.SendMessage(sendCtx, &tgbot.SendMessageParams{
		ChatID:          chatID,
		Text:            reply.Text,
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
		return
	}

	if reply.Document == nil {
		return
	}
	_, err = b.SendDocument(sendCtx, &tgbot.SendDocumentParams{
		ChatID: chatID,
		Document: &models.InputFileUpload{
			Filename: reply.Document.Name,
			Data:     bytes.NewReader(reply.Document.Content),
		},
		ReplyParameters: &models.ReplyParameters{MessageID: replyTo},
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send document", "error", err, "chat_id", chatID, "name", reply.Document.Name)
	}
}

// archiveExchange persists a resolved exchange to the message archive,
// retrying transient failures. Archiving is best effort: a failure is
// logged, never surfaced to the chat.
func archiveExchange(ctx context.Context, deps HandlerDeps, msg router.Message, question, answer string) {
	log := deps.Logger.With("helper", "archive")
	ts := time.Now().UTC()

	questionRow := &database.Message{
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		MessageID: msg.ID,
		Direction: database.DirectionQuestion,
		Content:   question,
		Timestamp: ts,
	}
	answerRow := &database.Message{
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		MessageID: msg.ID,
		Direction: database.DirectionAnswer,
		Content:   answer,
		Timestamp: ts,
	}

	const maxRetries = 3
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			log.WarnContext(ctx, "Context cancelled, aborting archive", "error", ctx.Err(), "chat_id", msg.ChatID)
			return
		}

		dbCtx, cancel := context.WithTimeout(ctx, archiveTimeout)
		err = deps.Store.SaveExchange(dbCtx, questionRow, answerRow)
		cancel()
		if err == nil {
			return
		}

		log.WarnContext(ctx, "Failed to archive exchange, retrying",
			"error", err, "chat_id", msg.ChatID, "attempt", attempt)
		time.Sleep(time.Duration(500*attempt) * time.Millisecond)
	}

	log.ErrorContext(ctx, fmt.Sprintf("Failed to archive exchange after %d attempts", maxRetries),
		"error", err, "chat_id", msg.ChatID)
}
