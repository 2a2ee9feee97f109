package models

import "time"

// DefaultMessageRole is used for messages that carry no role.
const DefaultMessageRole = "assistant"

// Conversation groups the messages exchanged with a model during one
// decision cycle. A new row is created on every import.
type Conversation struct {
	ID        int64     `json:"id"`
	ModelID   *string   `json:"model_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationMessage is a single message of a conversation
type ConversationMessage struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	TimestampMs    int64  `json:"ts_ms"`
}
