package session

import (
	"github.com/sheetpilot/sheetpilot/internal/observability"
)

// Message roles. A conversation starts with one synthesized system
// message; callers only ever append user and assistant turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MaxMessages caps the length of a persisted conversation. When the cap
// is exceeded the system message is retained and only the newest
// MaxMessages-1 turns are kept.
const MaxMessages = 40

// Message represents a single conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Info holds metadata about a persisted session
type Info struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
	Size         int64  `json:"size,omitempty"`
	LastModified int64  `json:"last_modified,omitempty"` // unix millis, zero when unknown
}

// appendTurn applies the append semantics shared by all drivers: inject
// the system message into an empty conversation, append the new turn,
// and truncate to the cap keeping the head plus the newest tail.
func appendTurn(messages []Message, role, content string, metadata map[string]any) []Message {
	if len(messages) == 0 {
		messages = append(messages, Message{
			Role:    RoleSystem,
			Content: BuildSystemPrompt(metadata),
		})
	}

	messages = append(messages, Message{Role: role, Content: content})

	if len(messages) > MaxMessages {
		truncated := make([]Message, 0, MaxMessages)
		truncated = append(truncated, messages[0])
		truncated = append(truncated, messages[len(messages)-(MaxMessages-1):]...)
		messages = truncated
		observability.RecordSessionTruncation()
	}

	return messages
}
