package types

import (
	"sync"
	"time"
)

// ChatRole identifies the author of a transcript entry.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// DefaultChatLimit bounds the transcript to the most recent entries.
const DefaultChatLimit = 200

// ChatMessage is one append-only transcript entry. The transcript is a side
// channel for the surrounding UI; it plays no part in decision logic.
type ChatMessage struct {
	Role      ChatRole               `json:"role"`
	Text      string                 `json:"text"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ChatLog is a bounded, concurrency-safe ring of chat messages. When the
// limit is exceeded the oldest entries are dropped.
type ChatLog struct {
	mu       sync.Mutex
	limit    int
	messages []ChatMessage
}

// NewChatLog creates a chat log bounded to limit entries. A non-positive
// limit falls back to DefaultChatLimit.
func NewChatLog(limit int) *ChatLog {
	if limit <= 0 {
		limit = DefaultChatLimit
	}
	return &ChatLog{limit: limit}
}

// Append adds a message, evicting the oldest entries beyond the limit.
func (l *ChatLog) Append(role ChatRole, text string, metadata map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, ChatMessage{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	if len(l.messages) > l.limit {
		l.messages = l.messages[len(l.messages)-l.limit:]
	}
}

// Messages returns a snapshot of the current transcript, oldest first.
func (l *ChatLog) Messages() []ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of retained messages.
func (l *ChatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
