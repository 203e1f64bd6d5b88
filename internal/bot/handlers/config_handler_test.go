package handlers_test

import (
	"strings"
	"testing"

	"github.com/humblebot/humblebot/internal/access"
	"github.com/humblebot/humblebot/internal/bot/handlers"
	"github.com/humblebot/humblebot/internal/config"
)

func newTestRegistry(t *testing.T) (*config.Registry, *access.Filter) {
	t.Helper()

	cfg := &config.Config{
		Telegram: config.TelegramConfig{Usernames: []string{"alice"}, Admins: []string{"alice"}},
		Gemini: config.GeminiConfig{
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 120,
		},
		Conversation: config.ConversationConfig{MaxHistoryDepth: 3},
		Bot:          config.BotConfig{MaxMessageLength: 4096},
		Database:     config.DatabaseConfig{RetentionDays: 30},
	}
	filter := access.NewFilter(cfg.Telegram.Usernames, cfg.Telegram.Admins, cfg.Telegram.ChatIDs)
	return config.NewRegistry(cfg, filter), filter
}

func TestBuildConfigReply(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name     string
		command  string
		expected string
		prefix   bool
		contains string
	}

	testGroups := map[string][]testCase{
		"Listing": {
			{
				name:    "Zero args lists with syntax preamble",
				command: "/config",
				prefix:  true, expected: "Syntax:",
			},
			{
				name:    "Group chat command form",
				command: "/config@bot",
				prefix:  true, expected: "Syntax:",
			},
		},
		"View": {
			{
				name:     "Known property",
				command:  "/config gemini.model",
				expected: "`gemini-2.0-flash`",
			},
			{
				name:     "Unknown property",
				command:  "/config no.such.path",
				expected: "✗ Unknown property: `no.such.path`",
			},
		},
		"Change": {
			{
				name:    "Changed",
				command: "/config gemini.model gemini-2.0-pro",
				prefix:  true, expected: "✓ Changed the `gemini.model` property",
			},
			{
				name:     "Unchanged",
				command:  "/config gemini.model gemini-2.0-flash",
				expected: "✗ The `gemini.model` property already equals to `gemini-2.0-flash`",
			},
			{
				name:     "Restart required",
				command:  "/config conversation.max_history_depth 5",
				contains: "Restart the bot",
			},
			{
				name:    "Invalid value",
				command: "/config gemini.timeout_seconds soon",
				prefix:  true, expected: "✗ Invalid value for the `gemini.timeout_seconds` property",
			},
			{
				name:     "Unknown property",
				command:  "/config no.such.path 5",
				expected: "✗ Unknown property: `no.such.path`",
			},
		},
	}

	for groupName, cases := range testGroups {
		for _, tc := range cases {
			t.Run(groupName+"/"+tc.name, func(t *testing.T) {
				t.Parallel()

				reg, _ := newTestRegistry(t)
				actual := handlers.BuildConfigReply(reg, tc.command)

				switch {
				case tc.contains != "":
					if !strings.Contains(actual, tc.contains) {
						t.Errorf("command: %q, expected to contain: %q, actual: %q", tc.command, tc.contains, actual)
					}
				case tc.prefix:
					if !strings.HasPrefix(actual, tc.expected) {
						t.Errorf("command: %q, expected prefix: %q, actual: %q", tc.command, tc.expected, actual)
					}
				default:
					if actual != tc.expected {
						t.Errorf("command: %q, expected: %q, actual: %q", tc.command, tc.expected, actual)
					}
				}
			})
		}
	}
}

func TestConfigSetListValueWithSpaces(t *testing.T) {
	t.Parallel()

	reg, filter := newTestRegistry(t)

	reply := handlers.BuildConfigReply(reg, `/config telegram.usernames ["alice", "bob"]`)
	if !strings.HasPrefix(reply, "✓ Changed the `telegram.usernames` property") {
		t.Fatalf("expected a change confirmation, actual: %q", reply)
	}
	if !filter.AllowedUser("bob") {
		t.Error("the new allow-list should be live immediately after the command")
	}

	value := handlers.BuildConfigReply(reg, "/config telegram.usernames")
	if value != "`[\"alice\",\"bob\"]`" {
		t.Errorf("view after set: expected: %q, actual: %q", "`[\"alice\",\"bob\"]`", value)
	}
}

func TestConfigListingShowsEveryPath(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(t)
	listing := handlers.BuildConfigReply(reg, "/config")

	for _, path := range []string{
		config.PathGeminiModel,
		config.PathGeminiTimeoutSeconds,
		config.PathMaxHistoryDepth,
		config.PathMaxMessageLength,
		config.PathRetentionDays,
		config.PathTelegramUsernames,
		config.PathTelegramAdmins,
		config.PathTelegramChatIDs,
	} {
		if !strings.Contains(listing, "`"+path+"`") {
			t.Errorf("listing should mention %q, actual:\n%s", path, listing)
		}
	}
}
