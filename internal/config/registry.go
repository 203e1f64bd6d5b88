package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/humblebot/humblebot/internal/access"
)

// Registered setting paths. Consumers that read live values use these
// constants rather than repeating the dotted paths.
const (
	PathGeminiModel          = "gemini.model"
	PathGeminiTimeoutSeconds = "gemini.timeout_seconds"
	PathMaxHistoryDepth      = "conversation.max_history_depth"
	PathMaxMessageLength     = "bot.max_message_length"
	PathRetentionDays        = "database.retention_days"
	PathTelegramUsernames    = "telegram.usernames"
	PathTelegramAdmins       = "telegram.admins"
	PathTelegramChatIDs      = "telegram.chat_ids"
)

// ErrUnknownKey is returned by Get and Set for a path with no registered
// setting.
var ErrUnknownKey = errors.New("unknown setting")

// InvalidValueError reports a raw value that could not be parsed into the
// setting's declared type. The live value is left untouched.
type InvalidValueError struct {
	Path   string
	Raw    string
	Reason error
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %s: %v", e.Path, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return e.Reason }

// Result classifies the outcome of a Set call.
type Result int

const (
	// ResultChanged means the new value took effect immediately.
	ResultChanged Result = iota
	// ResultUnchanged means the parsed value equals the current one.
	ResultUnchanged
	// ResultRestartRequired means the new value is stored but running
	// consumers keep the old value until the process restarts.
	ResultRestartRequired
)

// Outcome describes what a Set call did. Old and New are formatted values;
// for ResultUnchanged they are equal.
type Outcome struct {
	Result Result
	Old    string
	New    string
}

// Entry is one row of the settings listing.
type Entry struct {
	Path    string
	Value   string
	Type    Type
	Restart bool
}

type setting struct {
	typ     Type
	restart bool
	apply   func(v any)
	value   any
}

// Registry is a typed, dotted-path settings store. Reads and writes are
// safe from concurrent message-handling goroutines; writes to the access
// list paths push the parsed collection into the AccessFilter within the
// same critical section, so the next allowed check observes the change.
type Registry struct {
	mu       sync.RWMutex
	settings map[string]*setting
}

// NewRegistry builds the registry with the standard paths, seeded from the
// loaded configuration, and wires the access list paths to filter.
func NewRegistry(cfg *Config, filter *access.Filter) *Registry {
	r := &Registry{settings: make(map[string]*setting)}

	r.register(PathGeminiModel, TypeString, false, nil, cfg.Gemini.Model)
	r.register(PathGeminiTimeoutSeconds, TypeInt, false, nil, cfg.Gemini.TimeoutSeconds)
	r.register(PathMaxHistoryDepth, TypeInt, true, nil, cfg.Conversation.MaxHistoryDepth)
	r.register(PathMaxMessageLength, TypeInt, false, nil, cfg.Bot.MaxMessageLength)
	r.register(PathRetentionDays, TypeInt, false, nil, cfg.Database.RetentionDays)

	r.register(PathTelegramUsernames, TypeStringList, false, func(v any) {
		filter.SetUsers(v.([]string))
	}, canonStrings(cfg.Telegram.Usernames))
	r.register(PathTelegramAdmins, TypeStringList, false, func(v any) {
		filter.SetAdmins(v.([]string))
	}, canonStrings(cfg.Telegram.Admins))
	r.register(PathTelegramChatIDs, TypeIntList, false, func(v any) {
		filter.SetChats(v.([]int64))
	}, canonInts(cfg.Telegram.ChatIDs))

	return r
}

func (r *Registry) register(path string, typ Type, restart bool, apply func(v any), value any) {
	r.settings[path] = &setting{typ: typ, restart: restart, apply: apply, value: value}
}

// Get returns the formatted current value of the setting at path.
func (r *Registry) Get(path string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.settings[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, path)
	}
	return s.typ.Format(s.value), nil
}

// Set parses raw into the setting's declared type and stores it. Parsing
// happens before any mutation: an invalid value leaves the current value
// untouched and returns an InvalidValueError.
func (r *Registry) Set(path, raw string) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.settings[path]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownKey, path)
	}

	v, err := s.typ.Parse(raw)
	if err != nil {
		return Outcome{}, &InvalidValueError{Path: path, Raw: raw, Reason: err}
	}

	if s.typ.Equal(s.value, v) {
		cur := s.typ.Format(s.value)
		return Outcome{Result: ResultUnchanged, Old: cur, New: cur}, nil
	}

	old := s.typ.Format(s.value)
	s.value = v
	if s.apply != nil {
		s.apply(v)
	}

	result := ResultChanged
	if s.restart {
		result = ResultRestartRequired
	}
	return Outcome{Result: result, Old: old, New: s.typ.Format(v)}, nil
}

// List returns every registered setting with its formatted current value,
// sorted by path.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.settings))
	for path, s := range r.settings {
		entries = append(entries, Entry{
			Path:    path,
			Value:   s.typ.Format(s.value),
			Type:    s.typ,
			Restart: s.restart,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// Int returns the current value of an integer setting, or zero when the
// path is not registered as an integer. Used by consumers that read live
// settings on every call.
func (r *Registry) Int(path string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.settings[path]; ok {
		if n, ok := s.value.(int); ok {
			return n
		}
	}
	return 0
}

// String returns the current value of a string setting, or "" when the
// path is not registered as a string.
func (r *Registry) String(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.settings[path]; ok {
		if v, ok := s.value.(string); ok {
			return v
		}
	}
	return ""
}
