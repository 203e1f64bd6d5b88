// Package access implements the allow-lists that gate who may talk to the
// bot. The three categories (users, admins, chats) are independent sets;
// being an admin grants nothing in the user category unless the operator
// lists the name in both.
package access

import "sync"

// Filter answers membership questions against the live allow-lists. The
// lists are swapped wholesale by the config registry, so a configuration
// change is visible on the very next check without any reload step.
type Filter struct {
	mu     sync.RWMutex
	users  map[string]struct{}
	admins map[string]struct{}
	chats  map[int64]struct{}
}

// NewFilter builds a filter from the initial allow-lists, normally the
// values loaded from the configuration file.
func NewFilter(usernames, admins []string, chatIDs []int64) *Filter {
	f := &Filter{}
	f.SetUsers(usernames)
	f.SetAdmins(admins)
	f.SetChats(chatIDs)
	return f
}

// AllowedUser reports whether username may converse with the bot. An empty
// username (the sender has no Telegram handle) is never allowed, and an
// empty list denies everyone.
func (f *Filter) AllowedUser(username string) bool {
	if username == "" {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.users[username]
	return ok
}

// AllowedAdmin reports whether username may run administrative commands.
// Same empty-identity and empty-list policy as AllowedUser.
func (f *Filter) AllowedAdmin(username string) bool {
	if username == "" {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.admins[username]
	return ok
}

// AllowedChat reports whether the bot may answer in chatID. Unlike the
// username categories, an empty chat list means no chat restriction is
// configured and every chat is allowed.
func (f *Filter) AllowedChat(chatID int64) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.chats) == 0 {
		return true
	}
	_, ok := f.chats[chatID]
	return ok
}

// SetUsers replaces the user allow-list.
func (f *Filter) SetUsers(usernames []string) {
	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		set[u] = struct{}{}
	}
	f.mu.Lock()
	f.users = set
	f.mu.Unlock()
}

// SetAdmins replaces the admin allow-list.
func (f *Filter) SetAdmins(usernames []string) {
	set := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		set[u] = struct{}{}
	}
	f.mu.Lock()
	f.admins = set
	f.mu.Unlock()
}

// SetChats replaces the chat allow-list.
func (f *Filter) SetChats(chatIDs []int64) {
	set := make(map[int64]struct{}, len(chatIDs))
	for _, id := range chatIDs {
		set[id] = struct{}{}
	}
	f.mu.Lock()
	f.chats = set
	f.mu.Unlock()
}
