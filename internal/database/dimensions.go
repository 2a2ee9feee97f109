package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/trogers1052/nof0-api/internal/models"
)

// UpsertModel creates a model or overwrites its display name
func (db *DB) UpsertModel(modelID, displayName string) error {
	query := `
		INSERT INTO models (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			updated_at = now()
	`
	if _, err := db.conn.Exec(query, strings.TrimSpace(modelID), displayName); err != nil {
		return fmt.Errorf("failed to upsert model %s: %w", modelID, err)
	}
	return nil
}

// UpsertSymbol creates a symbol if it does not exist yet
func (db *DB) UpsertSymbol(symbol string) error {
	query := `INSERT INTO symbols (symbol) VALUES ($1) ON CONFLICT (symbol) DO NOTHING`
	if _, err := db.conn.Exec(query, strings.TrimSpace(symbol)); err != nil {
		return fmt.Errorf("failed to upsert symbol %s: %w", symbol, err)
	}
	return nil
}

// GetModel retrieves a model by id
func (db *DB) GetModel(modelID string) (*models.Model, error) {
	query := `SELECT id, display_name, created_at, updated_at FROM models WHERE id = $1`

	var m models.Model
	err := db.conn.QueryRow(query, modelID).Scan(&m.ID, &m.DisplayName, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("model not found: %s", modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return &m, nil
}

// ListModels returns every model ordered by id
func (db *DB) ListModels() ([]*models.Model, error) {
	query := `SELECT id, display_name, created_at, updated_at FROM models ORDER BY id ASC`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	result := []*models.Model{}
	for rows.Next() {
		var m models.Model
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate models: %w", err)
	}

	return result, nil
}

// ListSymbols returns every symbol in alphabetical order
func (db *DB) ListSymbols() ([]*models.Symbol, error) {
	rows, err := db.conn.Query(`SELECT symbol, created_at FROM symbols ORDER BY symbol ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	result := []*models.Symbol{}
	for rows.Next() {
		var s models.Symbol
		if err := rows.Scan(&s.Symbol, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		result = append(result, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate symbols: %w", err)
	}

	return result, nil
}
