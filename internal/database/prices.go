package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// UpsertPriceLatest overwrites the latest price of a symbol
func (db *DB) UpsertPriceLatest(p *models.PriceLatest) error {
	query := `
		INSERT INTO price_latest (symbol, price, ts_ms)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			price = EXCLUDED.price,
			ts_ms = EXCLUDED.ts_ms,
			updated_at = now()
	`
	if _, err := db.conn.Exec(query, p.Symbol, p.Price, p.TimestampMs); err != nil {
		return fmt.Errorf("failed to upsert latest price for %s: %w", p.Symbol, err)
	}
	return nil
}

// GetPriceLatest retrieves the latest price of a symbol
func (db *DB) GetPriceLatest(symbol string) (*models.PriceLatest, error) {
	query := `SELECT symbol, price, ts_ms, updated_at FROM price_latest WHERE symbol = $1`

	var p models.PriceLatest
	err := db.conn.QueryRow(query, symbol).Scan(&p.Symbol, &p.Price, &p.TimestampMs, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("latest price not found: %s", symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return &p, nil
}
