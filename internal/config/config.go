// Package config provides configuration for the bot: the file/env loaded
// Config struct used at startup, and the Registry of typed settings that an
// administrator can inspect and mutate at runtime.
package config

import (
	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration. Values come from defaults,
// config.yaml, and BOT_* environment variables, in that order.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Gemini       GeminiConfig       `mapstructure:"gemini"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Bot          BotConfig          `mapstructure:"bot"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the transport credentials and the initial
// allow-lists. BotInfo is filled at startup from GetMe, not from the file.
type TelegramConfig struct {
	Token     string   `mapstructure:"token"     validate:"required"`
	Usernames []string `mapstructure:"usernames"`
	Admins    []string `mapstructure:"admins"`
	ChatIDs   []int64  `mapstructure:"chat_ids"`

	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds the AI backend settings.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"             validate:"required"`
	Model             string  `mapstructure:"model"               validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	Instruction       string  `mapstructure:"instruction"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"     validate:"min=1,max=600"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=1,max=60"`
}

// ConversationConfig bounds the in-memory session histories. The depth is
// captured by the store at construction, so changing it at runtime requires
// a restart.
type ConversationConfig struct {
	MaxHistoryDepth int `mapstructure:"max_history_depth" validate:"min=1,max=50"`
}

// BotConfig holds reply assembly settings.
type BotConfig struct {
	MaxMessageLength int `mapstructure:"max_message_length" validate:"min=100"`
}

// DatabaseConfig holds the message archive settings. RetentionDays of zero
// keeps archived messages forever.
type DatabaseConfig struct {
	Path          string `mapstructure:"path"           validate:"required"`
	RetentionDays int    `mapstructure:"retention_days" validate:"min=0"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a scheduled task and sets its cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds the user-facing reply texts. The defaults carry the
// canonical wording; deployments may reword them.
type MessagesConfig struct {
	Greeting      string `mapstructure:"greeting"       validate:"required"`
	Unknown       string `mapstructure:"unknown"        validate:"required"`
	Forwarded     string `mapstructure:"forwarded"      validate:"required"`
	NotAuthorized string `mapstructure:"not_authorized" validate:"required"`
	HistoryReset  string `mapstructure:"history_reset"  validate:"required"`
	Help          string `mapstructure:"help"           validate:"required"`
}
