package router_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/humblebot/humblebot/internal/access"
	"github.com/humblebot/humblebot/internal/config"
	"github.com/humblebot/humblebot/internal/conversation"
	"github.com/humblebot/humblebot/internal/gemini"
	"github.com/humblebot/humblebot/internal/logger"
	"github.com/humblebot/humblebot/internal/router"
	"github.com/humblebot/humblebot/internal/text"
)

// fakeAsker echoes the question back as the answer, records what it was
// asked, and can be told to fail or to answer with a fixed text.
type fakeAsker struct {
	mu       sync.Mutex
	question string
	history  []conversation.Turn
	answer   string
	err      error
	calls    int
}

func (f *fakeAsker) Ask(_ context.Context, question string, history []conversation.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.question = question
	f.history = append([]conversation.Turn(nil), history...)
	if f.err != nil {
		return "", f.err
	}
	if f.answer != "" {
		return f.answer, nil
	}
	return question, nil
}

type fixture struct {
	router *router.Router
	asker  *fakeAsker
	store  *conversation.Store
	filter *access.Filter
	reg    *config.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			Usernames: []string{"alice"},
			Admins:    []string{"alice"},
		},
		Gemini: config.GeminiConfig{
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 120,
		},
		Conversation: config.ConversationConfig{MaxHistoryDepth: 3},
		Bot:          config.BotConfig{MaxMessageLength: 4096},
		Messages:     config.DefaultMessages,
	}

	asker := &fakeAsker{}
	store := conversation.NewStore(cfg.Conversation.MaxHistoryDepth)
	filter := access.NewFilter(cfg.Telegram.Usernames, cfg.Telegram.Admins, cfg.Telegram.ChatIDs)
	reg := config.NewRegistry(cfg, filter)
	log := logger.NewLogger("error", false)

	return &fixture{
		router: router.New(log, asker, store, filter, reg, config.DefaultMessages, "bot"),
		asker:  asker,
		store:  store,
		filter: filter,
		reg:    reg,
	}
}

func privateMsg(id int, msgText string) router.Message {
	return router.Message{
		ID:       id,
		UserID:   1,
		Username: "alice",
		ChatID:   1,
		ChatKind: router.ChatKindPrivate,
		Text:     msgText,
	}
}

func groupMsg(id int, msgText string) router.Message {
	m := privateMsg(id, msgText)
	m.ChatKind = "group"
	m.ChatID = -100
	return m
}

func TestPlainQuestionResetsContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	key := conversation.Key{UserID: 1, ChatID: 1}
	f.store.Record(key, conversation.Turn{Question: "earlier", Answer: "turn"})

	reply := f.router.HandleMessage(context.Background(), privateMsg(11, "What is your name?"))
	if reply == nil {
		t.Fatal("expected a reply")
	}
	if reply.Text != "What is your name?" {
		t.Errorf("reply: expected: %q, actual: %q", "What is your name?", reply.Text)
	}
	if f.asker.question != "What is your name?" {
		t.Errorf("asked question: expected: %q, actual: %q", "What is your name?", f.asker.question)
	}
	if len(f.asker.history) != 0 {
		t.Errorf("a plain question must reset context: expected empty history, actual: %v", f.asker.history)
	}
}

func TestFollowUpFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleMessage(ctx, privateMsg(11, "What is your name?"))
	if f.asker.question != "What is your name?" {
		t.Fatalf("first question: expected: %q, actual: %q", "What is your name?", f.asker.question)
	}
	if len(f.asker.history) != 0 {
		t.Fatalf("first question history: expected empty, actual: %v", f.asker.history)
	}

	f.router.HandleMessage(ctx, privateMsg(12, "+ And why is that?"))
	if f.asker.question != "And why is that?" {
		t.Errorf("follow-up question: expected marker stripped %q, actual: %q", "And why is that?", f.asker.question)
	}
	expected := []conversation.Turn{{Question: "What is your name?", Answer: "What is your name?"}}
	assertHistory(t, expected, f.asker.history)

	f.router.HandleMessage(ctx, privateMsg(13, "+ Where are you?"))
	if f.asker.question != "Where are you?" {
		t.Errorf("second follow-up question: expected: %q, actual: %q", "Where are you?", f.asker.question)
	}
	expected = []conversation.Turn{
		{Question: "What is your name?", Answer: "What is your name?"},
		// The stored turn keeps the marker verbatim while the asker saw it
		// stripped.
		{Question: "+ And why is that?", Answer: "And why is that?"},
	}
	assertHistory(t, expected, f.asker.history)
}

func assertHistory(t *testing.T, expected, actual []conversation.Turn) {
	t.Helper()

	if len(actual) != len(expected) {
		t.Fatalf("history length: expected: %d, actual: %d (%v)", len(expected), len(actual), actual)
	}
	for i := range expected {
		if actual[i] != expected[i] {
			t.Errorf("history[%d]: expected: %+v, actual: %+v", i, expected[i], actual[i])
		}
	}
}

func TestForwardedMessage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	msg := privateMsg(11, "What is your name?")
	msg.Forwarded = true

	reply := f.router.HandleMessage(context.Background(), msg)
	if reply == nil {
		t.Fatal("expected the forwarded notice")
	}
	if !strings.HasPrefix(reply.Text, "This is a forwarded message") {
		t.Errorf("expected forwarded notice, actual: %q", reply.Text)
	}
	if f.asker.calls != 0 {
		t.Errorf("asker must not be called for forwarded messages, calls: %d", f.asker.calls)
	}
	if h := f.store.History(conversation.Key{UserID: 1, ChatID: 1}); h != nil {
		t.Errorf("history must not change for forwarded messages, actual: %v", h)
	}
}

func TestGroupMentionGate(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name          string
		msgText       string
		expectReply   bool
		expectedAsked string
	}

	testGroups := map[string][]testCase{
		"No Mention": {
			{name: "Plain group question ignored", msgText: "What is your name?"},
			{name: "Other mention ignored", msgText: "@someone What is your name?"},
		},
		"Mentioned": {
			{
				name:          "Leading mention",
				msgText:       "@bot What is your name?",
				expectReply:   true,
				expectedAsked: "What is your name?",
			},
			{
				name:          "Mention is case insensitive",
				msgText:       "@Bot What is your name?",
				expectReply:   true,
				expectedAsked: "What is your name?",
			},
			{
				name:          "Mention mid-sentence",
				msgText:       "hey @bot What is your name?",
				expectReply:   true,
				expectedAsked: "hey What is your name?",
			},
			{
				// Characters whose case pair has a different byte length
				// (here U+212A) must not shift the mention cut.
				name:          "Multibyte text before the mention",
				msgText:       "KK @bot What is your name?",
				expectReply:   true,
				expectedAsked: "KK What is your name?",
			},
		},
	}

	for groupName, cases := range testGroups {
		for _, tc := range cases {
			t.Run(groupName+"/"+tc.name, func(t *testing.T) {
				t.Parallel()

				f := newFixture(t)
				reply := f.router.HandleMessage(context.Background(), groupMsg(11, tc.msgText))

				if !tc.expectReply {
					if reply != nil {
						t.Fatalf("expected no reply, actual: %q", reply.Text)
					}
					if f.asker.calls != 0 {
						t.Errorf("asker must not be called, calls: %d", f.asker.calls)
					}
					if h := f.store.History(conversation.Key{UserID: 1, ChatID: -100}); h != nil {
						t.Errorf("store must not change, actual: %v", h)
					}
					return
				}

				if reply == nil {
					t.Fatal("expected a reply")
				}
				if f.asker.question != tc.expectedAsked {
					t.Errorf("asked question: expected: %q, actual: %q", tc.expectedAsked, f.asker.question)
				}
			})
		}
	}
}

func TestGroupFollowUpKeepsPerUserHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.router.HandleMessage(ctx, groupMsg(11, "@bot What is your name?"))
	f.router.HandleMessage(ctx, groupMsg(12, "@bot + And why is that?"))

	expected := []conversation.Turn{{Question: "What is your name?", Answer: "What is your name?"}}
	assertHistory(t, expected, f.asker.history)

	// The same user in a private chat has an independent session.
	if h := f.store.History(conversation.Key{UserID: 1, ChatID: 1}); h != nil {
		t.Errorf("group history leaked into the private chat session: %v", h)
	}
}

func TestBackendFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.asker.err = &gemini.BackendError{Detail: "connection timeout"}

	reply := f.router.HandleMessage(context.Background(), privateMsg(11, "What is your name?"))
	if reply == nil {
		t.Fatal("expected a failure reply")
	}
	if !strings.HasPrefix(reply.Text, "Failed to answer") {
		t.Errorf("expected the failure prefix, actual: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "connection timeout") {
		t.Errorf("expected the backend detail in the reply, actual: %q", reply.Text)
	}
	if h := f.store.History(conversation.Key{UserID: 1, ChatID: 1}); h != nil {
		t.Errorf("history must not change on failure, actual: %v", h)
	}
}

func TestOversizedAnswer(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.asker.answer = "I have so much to say" + strings.Repeat(".", 5000)

	reply := f.router.HandleMessage(context.Background(), privateMsg(11, "Tell me everything"))
	if reply == nil {
		t.Fatal("expected a reply")
	}

	expected := "I have so much to" + text.Placeholder + " (see attachment for the rest): 11.md"
	if reply.Text != expected {
		t.Errorf("preview: expected: %q, actual: %q", expected, reply.Text)
	}
	if reply.Document == nil {
		t.Fatal("expected a document attachment")
	}
	if reply.Document.Name != "11.md" {
		t.Errorf("attachment name: expected: %q, actual: %q", "11.md", reply.Document.Name)
	}
	if string(reply.Document.Content) != f.asker.answer {
		t.Error("attachment should carry the full answer")
	}
}

func TestRetry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// Empty history: silent no-op.
	if reply := f.router.Retry(ctx, privateMsg(11, "")); reply != nil {
		t.Fatalf("retry with no history should be a no-op, actual: %q", reply.Text)
	}
	if f.asker.calls != 0 {
		t.Fatalf("asker must not be called on empty retry, calls: %d", f.asker.calls)
	}

	key := conversation.Key{UserID: 1, ChatID: 1}
	f.store.Record(key, conversation.Turn{Question: "What is your name?", Answer: "My name is AI."})

	reply := f.router.Retry(ctx, privateMsg(12, ""))
	if reply == nil {
		t.Fatal("expected a reply")
	}
	if reply.Text != "What is your name?" {
		t.Errorf("retry reply: expected: %q, actual: %q", "What is your name?", reply.Text)
	}
	if f.asker.question != "What is your name?" {
		t.Errorf("retried question: expected: %q, actual: %q", "What is your name?", f.asker.question)
	}
	if reply.Question != "What is your name?" {
		t.Errorf("reply question: expected: %q, actual: %q", "What is your name?", reply.Question)
	}
}

func TestRetryOfFollowUpKeepsContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	key := conversation.Key{UserID: 1, ChatID: 1}
	f.store.Record(key, conversation.Turn{Question: "first", Answer: "answer"})
	f.store.Record(key, conversation.Turn{Question: "+ second", Answer: "answer"})

	reply := f.router.Retry(context.Background(), privateMsg(13, ""))
	if f.asker.question != "second" {
		t.Errorf("retried follow-up: expected marker stripped %q, actual: %q", "second", f.asker.question)
	}
	if len(f.asker.history) != 2 {
		t.Errorf("retried follow-up should carry the stored history, actual: %v", f.asker.history)
	}
	if reply == nil {
		t.Fatal("expected a reply")
	}
	// The reply carries the replayed question in its stored form, which is
	// what the archive should record for a retry.
	if reply.Question != "+ second" {
		t.Errorf("reply question: expected: %q, actual: %q", "+ second", reply.Question)
	}
}

func TestGreet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	known := f.router.Greet(privateMsg(11, "/start"))
	if !strings.HasPrefix(known.Text, "Hi! I'm a humble AI-driven chat bot.") {
		t.Errorf("expected the greeting, actual: %q", known.Text)
	}

	msg := privateMsg(11, "/start")
	msg.UserID = 2
	msg.Username = "bob"
	unknown := f.router.Greet(msg)
	if !strings.HasPrefix(unknown.Text, "Sorry, I don't know you") {
		t.Errorf("expected the rejection notice, actual: %q", unknown.Text)
	}
}

func TestUnknownSenderIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	msg := privateMsg(11, "What is your name?")
	msg.UserID = 2
	msg.Username = "bob"

	if reply := f.router.HandleMessage(context.Background(), msg); reply != nil {
		t.Fatalf("unknown sender should be ignored, actual: %q", reply.Text)
	}
	if f.asker.calls != 0 {
		t.Errorf("asker must not be called for unknown senders, calls: %d", f.asker.calls)
	}
}

func TestChatAllowList(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// No chat restriction configured: the group chat works.
	if reply := f.router.HandleMessage(ctx, groupMsg(11, "@bot hello")); reply == nil {
		t.Fatal("open chat list should allow the group chat")
	}

	if _, err := f.reg.Set(config.PathTelegramChatIDs, "[-100500]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply := f.router.HandleMessage(ctx, groupMsg(12, "@bot hello")); reply != nil {
		t.Fatalf("unlisted chat should now be ignored, actual: %q", reply.Text)
	}

	msg := groupMsg(13, "@bot hello")
	msg.ChatID = -100500
	if reply := f.router.HandleMessage(ctx, msg); reply == nil {
		t.Fatal("listed chat should be allowed")
	}
}

func TestAccessChangeVisibleImmediately(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	msg := privateMsg(11, "hello")
	msg.UserID = 2
	msg.Username = "bob"

	if reply := f.router.HandleMessage(ctx, msg); reply != nil {
		t.Fatal("bob should start out denied")
	}
	if _, err := f.reg.Set(config.PathTelegramUsernames, `["alice", "bob"]`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply := f.router.HandleMessage(ctx, msg); reply == nil {
		t.Fatal("bob should be allowed on the very next message, without a restart")
	}
}
