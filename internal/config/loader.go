package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional)
// 3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine, the defaults and environment carry it.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.instruction", DefaultGeminiInstruction)
	v.SetDefault("gemini.timeout_seconds", DefaultGeminiTimeoutSeconds)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelaySeconds)

	v.SetDefault("conversation.max_history_depth", DefaultMaxHistoryDepth)

	v.SetDefault("bot.max_message_length", DefaultMaxMessageLength)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention_days", DefaultRetentionDays)

	v.SetDefault("scheduler.tasks", DefaultSchedulerTasks)

	v.SetDefault("messages.greeting", DefaultMessages.Greeting)
	v.SetDefault("messages.unknown", DefaultMessages.Unknown)
	v.SetDefault("messages.forwarded", DefaultMessages.Forwarded)
	v.SetDefault("messages.not_authorized", DefaultMessages.NotAuthorized)
	v.SetDefault("messages.history_reset", DefaultMessages.HistoryReset)
	v.SetDefault("messages.help", DefaultMessages.Help)
}
