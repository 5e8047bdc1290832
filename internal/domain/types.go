// Package domain holds the value types and error taxonomy shared by the
// ingestion, retrieval and chat layers.
package domain

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TextChunk is the text of one non-empty PDF page.
// Content is never empty.
type TextChunk struct {
	Content string `json:"content"`
	Page    int    `json:"page"`   // 1-based
	Source  string `json:"source"` // filename the page came from
}

// ConversationTurn is a single entry in a session's conversation log.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
