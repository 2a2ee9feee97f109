package database

import (
	"database/sql"
	"fmt"

	"github.com/trogers1052/nof0-api/internal/models"
)

// InsertTrade stores a trade. Trades are immutable: a trade whose id already
// exists is left untouched.
func (db *DB) InsertTrade(t *models.Trade) error {
	query := `
		INSERT INTO trades (
			id, model_id, symbol, side, trade_type, quantity, leverage, confidence,
			entry_price, entry_ts_ms, exit_price, exit_ts_ms,
			realized_gross_pnl, realized_net_pnl, total_commission_dollars
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := db.conn.Exec(query,
		t.ID, t.ModelID, t.Symbol, t.Side, t.TradeType, t.Quantity, t.Leverage, t.Confidence,
		t.EntryPrice, t.EntryTsMs, t.ExitPrice, t.ExitTsMs,
		t.RealizedGrossPnl, t.RealizedNetPnl, t.TotalCommissionDollars,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", t.ID, err)
	}
	return nil
}

// GetTrade retrieves a trade by id
func (db *DB) GetTrade(id string) (*models.Trade, error) {
	query := `
		SELECT id, model_id, symbol, side, trade_type, quantity, leverage, confidence,
		       entry_price, entry_ts_ms, exit_price, exit_ts_ms,
		       realized_gross_pnl, realized_net_pnl, total_commission_dollars, created_at
		FROM trades
		WHERE id = $1
	`
	var t models.Trade
	var modelID, symbol, side, tradeType sql.NullString
	var quantity, leverage, confidence, entryPrice, exitPrice sql.NullFloat64
	var grossPnl, netPnl, commission sql.NullFloat64

	err := db.conn.QueryRow(query, id).Scan(
		&t.ID, &modelID, &symbol, &side, &tradeType, &quantity, &leverage, &confidence,
		&entryPrice, &t.EntryTsMs, &exitPrice, &t.ExitTsMs,
		&grossPnl, &netPnl, &commission, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trade not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}

	t.ModelID = stringPtr(modelID)
	t.Symbol = stringPtr(symbol)
	t.Side = stringPtr(side)
	t.TradeType = stringPtr(tradeType)
	t.Quantity = floatPtr(quantity)
	t.Leverage = floatPtr(leverage)
	t.Confidence = floatPtr(confidence)
	t.EntryPrice = floatPtr(entryPrice)
	t.ExitPrice = floatPtr(exitPrice)
	t.RealizedGrossPnl = floatPtr(grossPnl)
	t.RealizedNetPnl = floatPtr(netPnl)
	t.TotalCommissionDollars = floatPtr(commission)

	return &t, nil
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}
