// Package router implements the per-message classification and
// orchestration at the heart of the bot: it decides whether an incoming
// message is a question, which history to attach, calls the asker, records
// the resolved turn, and assembles the outgoing reply. It is deliberately
// transport-free so the whole flow is testable without Telegram.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/humblebot/humblebot/internal/access"
	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/conversation"
	"github.com/humblebot/humblebot/internal/gemini"
	"github.com/humblebot/humblebot/internal/text"
)

// FollowUpMarker links a question to the previous conversation. A question
// without it is asked from scratch.
const FollowUpMarker = "+"

// previewWidth is how much of an oversized answer is shown inline before
// the attachment note.
const previewWidth = 40

// ChatKindPrivate marks one-on-one chats; anything else is treated as a
// group and passes through the mention gate.
const ChatKindPrivate = "private"

// Asker is the AI backend capability the router drives. The router never
// holds a store lock across this call.
type Asker interface {
	Ask(ctx context.Context, question string, history []conversation.Turn) (string, error)
}

// Message is the transport-independent view of an incoming chat message.
type Message struct {
	ID        int
	UserID    int64
	Username  string
	ChatID    int64
	ChatKind  string
	Text      string
	Forwarded bool
}

// Document is a file attachment carrying the part of an answer that did
// not fit into a chat message.
type Document struct {
	Name    string
	Content []byte
}

// Reply is what goes back to the chat. A nil Reply means the message was
// ignored on purpose. Answer carries the full answer text when the asker
// succeeded, even when Text is only a preview; it stays empty for notices
// and failures, so callers can tell a resolved exchange from the rest.
// Question is Answer's counterpart in its stored form (follow-up marker
// kept), so a retried exchange archives the question that was actually
// re-asked rather than the command text.
type Reply struct {
	Text     string
	Document *Document
	Question string
	Answer   string
}

// Router classifies messages and orchestrates the conversation store and
// the asker. Safe for concurrent use across distinct (user, chat) pairs.
type Router struct {
	log         *slog.Logger
	asker       Asker
	store       *conversation.Store
	filter      *access.Filter
	registry    *config.Registry
	messages    config.MessagesConfig
	botUsername string
	typing      func(ctx context.Context, chatID int64)
}

// New creates a router. botUsername is the bot's own handle, used for the
// group chat mention gate; it comes from GetMe at startup.
func New(
	log *slog.Logger,
	asker Asker,
	store *conversation.Store,
	filter *access.Filter,
	registry *config.Registry,
	messages config.MessagesConfig,
	botUsername string,
) *Router {
	return &Router{
		log:         log.With("component", "router"),
		asker:       asker,
		store:       store,
		filter:      filter,
		registry:    registry,
		messages:    messages,
		botUsername: botUsername,
	}
}

// SetTyping installs a callback invoked right before an AI call starts,
// used to show the typing indicator in the originating chat.
func (r *Router) SetTyping(fn func(ctx context.Context, chatID int64)) {
	r.typing = fn
}

// HandleMessage processes a plain (non-command) chat message and returns
// the reply, or nil when the message should be ignored: empty text, a
// group message that does not mention the bot, or a sender/chat the access
// lists do not allow.
func (r *Router) HandleMessage(ctx context.Context, msg Message) *Reply {
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}

	// In group chats the mention gate runs before everything else, the
	// forwarded notice included: the bot stays silent in threads it was
	// not called into.
	body := msg.Text
	if msg.ChatKind != ChatKindPrivate {
		stripped, mentioned := r.stripMention(body)
		if !mentioned {
			return nil
		}
		body = stripped
	}

	if !r.filter.AllowedUser(msg.Username) {
		r.log.DebugContext(ctx, "Ignoring message from unknown user",
			"user_id", msg.UserID, "chat_id", msg.ChatID)
		return nil
	}
	if !r.filter.AllowedChat(msg.ChatID) {
		r.log.DebugContext(ctx, "Ignoring message from disallowed chat", "chat_id", msg.ChatID)
		return nil
	}

	if msg.Forwarded {
		return &Reply{Text: r.messages.Forwarded}
	}

	return r.answer(ctx, msg, body)
}

// Retry re-issues the most recent stored question for the sender's session
// as if it had just arrived. With no stored history it is a silent no-op.
// Being an explicit command, it skips the mention gate.
func (r *Router) Retry(ctx context.Context, msg Message) *Reply {
	if !r.filter.AllowedUser(msg.Username) || !r.filter.AllowedChat(msg.ChatID) {
		return nil
	}

	key := conversation.Key{UserID: msg.UserID, ChatID: msg.ChatID}
	question, ok := r.store.LastQuestion(key)
	if !ok {
		r.log.DebugContext(ctx, "Retry with empty history", "user_id", msg.UserID, "chat_id", msg.ChatID)
		return nil
	}
	return r.answer(ctx, msg, question)
}

// Greet answers a start command: the greeting for known users, the
// rejection notice for everyone else.
func (r *Router) Greet(msg Message) *Reply {
	if !r.filter.AllowedUser(msg.Username) {
		return &Reply{Text: r.messages.Unknown}
	}
	return &Reply{Text: r.messages.Greeting}
}

// answer runs the question flow for body, which has the mention already
// stripped but keeps the follow-up marker. The marker decides the history:
// with it, the full stored history goes to the asker and the question is
// the text after the marker; without it, the context resets and the asker
// sees an empty history even when stored turns exist.
func (r *Router) answer(ctx context.Context, msg Message, body string) *Reply {
	key := conversation.Key{UserID: msg.UserID, ChatID: msg.ChatID}

	question := strings.TrimSpace(body)
	var history []conversation.Turn
	if rest, ok := strings.CutPrefix(question, FollowUpMarker); ok {
		question = strings.TrimSpace(rest)
		history = r.store.History(key)
	}
	if question == "" {
		return nil
	}

	if r.typing != nil {
		r.typing(ctx, msg.ChatID)
	}

	// The history snapshot is already taken; the asker call runs without
	// any lock held.
	askCtx := ctx
	if timeout := r.registry.Int(config.PathGeminiTimeoutSeconds); timeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	answer, err := r.asker.Ask(askCtx, question, history)
	if err != nil {
		detail := err.Error()
		var backendErr *gemini.BackendError
		if errors.As(err, &backendErr) {
			detail = backendErr.Detail
		}
		r.log.WarnContext(ctx, "Asker failed", "error", err, "chat_id", msg.ChatID)
		return &Reply{Text: fmt.Sprintf("Failed to answer: %s", detail)}
	}

	answer = text.Sanitize(answer)

	// The stored question keeps the follow-up marker verbatim, so a later
	// retry replays it as a follow-up.
	stored := strings.TrimSpace(body)
	r.store.Record(key, conversation.Turn{Question: stored, Answer: answer})

	reply := r.assemble(msg.ID, answer)
	reply.Question = stored
	return reply
}

// assemble formats the outgoing reply. Answers over the platform limit
// become a shortened preview plus a markdown attachment named after the
// originating message.
func (r *Router) assemble(messageID int, answer string) *Reply {
	maxLen := r.registry.Int(config.PathMaxMessageLength)
	if maxLen <= 0 || len(answer) <= maxLen {
		return &Reply{Text: answer, Answer: answer}
	}

	name := fmt.Sprintf("%d.md", messageID)
	return &Reply{
		Text:     fmt.Sprintf("%s (see attachment for the rest): %s", text.Shorten(answer, previewWidth), name),
		Document: &Document{Name: name, Content: []byte(answer)},
		Answer:   answer,
	}
}

// stripMention removes the first @botname mention from s. The second
// return reports whether a mention was present at all. The scan compares
// case-insensitively in place: lowering a copy of s first would shift
// byte offsets for characters whose case pair has a different length
// (U+212A, U+0130) and cut the original string in the wrong place.
func (r *Router) stripMention(s string) (string, bool) {
	if r.botUsername == "" {
		return s, false
	}
	mention := "@" + r.botUsername
	for i := 0; i+len(mention) <= len(s); i++ {
		if s[i] != '@' || !strings.EqualFold(s[i:i+len(mention)], mention) {
			continue
		}
		before := strings.TrimSpace(s[:i])
		after := strings.TrimSpace(s[i+len(mention):])
		return strings.TrimSpace(before + " " + after), true
	}
	return s, false
}
