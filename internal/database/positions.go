package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// InsertOpenPosition stores an open position keyed by its synthetic id.
// A position whose id already exists is left untouched.
func (db *DB) InsertOpenPosition(p *models.Position) error {
	query := `
		INSERT INTO positions (
			id, model_id, symbol, side, entry_price, quantity, leverage, confidence, entry_ts_ms, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	if p.Side == "" {
		p.Side = models.PositionSideLong
	}
	p.Status = models.PositionStatusOpen

	_, err := db.conn.Exec(query,
		p.ID, p.ModelID, p.Symbol, p.Side, p.EntryPrice, p.Quantity,
		p.Leverage, p.Confidence, p.EntryTsMs, p.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert position %s: %w", p.ID, err)
	}
	return nil
}

// GetPosition retrieves a position by its synthetic id
func (db *DB) GetPosition(id string) (*models.Position, error) {
	query := `
		SELECT id, model_id, symbol, side, entry_price, quantity, leverage, confidence,
		       entry_ts_ms, status, created_at
		FROM positions
		WHERE id = $1
	`
	var p models.Position
	var modelID sql.NullString
	var entryPrice, quantity, leverage, confidence sql.NullFloat64

	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &modelID, &p.Symbol, &p.Side, &entryPrice, &quantity, &leverage, &confidence,
		&p.EntryTsMs, &p.Status, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("position not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}

	p.ModelID = stringPtr(modelID)
	p.EntryPrice = floatPtr(entryPrice)
	p.Quantity = floatPtr(quantity)
	p.Leverage = floatPtr(leverage)
	p.Confidence = floatPtr(confidence)

	return &p, nil
}
