package config

// Default values for optional configuration parameters.
const (
	// Logger defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Gemini defaults
	DefaultGeminiModel             = "gemini-2.0-flash"
	DefaultGeminiTemperature       = 1.0
	DefaultGeminiTimeoutSeconds    = 120
	DefaultGeminiMaxRetries        = 2
	DefaultGeminiRetryDelaySeconds = 5
	DefaultGeminiInstruction       = "You are a helpful assistant. Answer concisely and to the point."

	// Conversation defaults
	DefaultMaxHistoryDepth = 3

	// Bot defaults
	DefaultMaxMessageLength = 4096 // Telegram's message size limit

	// Database defaults
	DefaultDatabasePath  = "humblebot.db"
	DefaultRetentionDays = 0 // keep archived messages forever
)

// DefaultMessages carries the canonical wording of the user-facing replies.
var DefaultMessages = MessagesConfig{
	Greeting:      "Hi! I'm a humble AI-driven chat bot. Ask me anything!",
	Unknown:       "Sorry, I don't know you. This bot is available by invitation only.",
	Forwarded:     "This is a forwarded message. I can only answer questions addressed to me directly.",
	NotAuthorized: "Sorry, you are not authorized to use this command.",
	HistoryReset:  "Conversation history and the message archive have been cleared.",
	Help: "I answer questions using a generative AI backend.\n\n" +
		"Send me a question and I will answer it from scratch. " +
		"Prefix a question with + to continue the previous conversation.\n\n" +
		"Commands:\n" +
		"/retry - re-ask my latest question\n" +
		"/config - inspect or change settings (admins)\n" +
		"/reset - clear histories and the archive (admins)",
}

// DefaultSchedulerTasks enables the maintenance tasks on conservative
// schedules.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: true, Schedule: "0 0 4 * * *"},
	"archive_cleanup": {Enabled: true, Schedule: "0 30 4 * * *"},
}
