package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// InsertConversation always creates a new conversation and returns its id.
// Conversations are not deduplicated.
func (db *DB) InsertConversation(modelID *string) (int64, error) {
	query := `INSERT INTO conversations (model_id) VALUES ($1) RETURNING id`

	var id int64
	if err := db.conn.QueryRow(query, modelID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return id, nil
}

// GetConversation retrieves a conversation by id
func (db *DB) GetConversation(id int64) (*models.Conversation, error) {
	query := `SELECT id, model_id, created_at FROM conversations WHERE id = $1`

	var c models.Conversation
	var modelID sql.NullString
	err := db.conn.QueryRow(query, id).Scan(&c.ID, &modelID, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	c.ModelID = stringPtr(modelID)

	return &c, nil
}

// InsertConversationMessage appends a message to a conversation
func (db *DB) InsertConversationMessage(m *models.ConversationMessage) error {
	query := `
		INSERT INTO conversation_messages (conversation_id, role, content, ts_ms)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if m.Role == "" {
		m.Role = models.DefaultMessageRole
	}

	err := db.conn.QueryRow(query, m.ConversationID, m.Role, m.Content, m.TimestampMs).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert message for conversation %d: %w", m.ConversationID, err)
	}
	return nil
}

// GetConversationMessages returns the messages of a conversation in insert order
func (db *DB) GetConversationMessages(conversationID int64) ([]*models.ConversationMessage, error) {
	query := `
		SELECT id, conversation_id, role, content, ts_ms
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY id ASC
	`
	rows, err := db.conn.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.ConversationMessage
	for rows.Next() {
		var m models.ConversationMessage
		var content sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &content, &m.TimestampMs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation message: %w", err)
		}
		m.Content = content.String
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation messages: %w", err)
	}

	return messages, nil
}
