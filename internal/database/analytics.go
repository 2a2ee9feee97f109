package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// UpsertModelAnalytics replaces the analytics document of a model and bumps
// its updated_at.
func (db *DB) UpsertModelAnalytics(modelID string, payload json.RawMessage) error {
	query := `
		INSERT INTO model_analytics (model_id, payload)
		VALUES ($1, $2)
		ON CONFLICT (model_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = now()
	`
	if _, err := db.conn.Exec(query, modelID, string(payload)); err != nil {
		return fmt.Errorf("failed to upsert analytics for %s: %w", modelID, err)
	}
	return nil
}

// GetModelAnalytics retrieves the analytics document of a model
func (db *DB) GetModelAnalytics(modelID string) (*models.ModelAnalytics, error) {
	query := `SELECT model_id, payload, updated_at FROM model_analytics WHERE model_id = $1`

	var a models.ModelAnalytics
	var payload []byte
	err := db.conn.QueryRow(query, modelID).Scan(&a.ModelID, &payload, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analytics not found: %s", modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}
	a.Payload = json.RawMessage(payload)

	return &a, nil
}
