package models

import "time"

// Trade is a completed trade taken by a model. Trades are immutable once
// stored; re-importing the same id is a no-op.
type Trade struct {
	ID                     string    `json:"id"`
	ModelID                *string   `json:"model_id,omitempty"`
	Symbol                 *string   `json:"symbol,omitempty"`
	Side                   *string   `json:"side,omitempty"`
	TradeType              *string   `json:"trade_type,omitempty"`
	Quantity               *float64  `json:"quantity,omitempty"`
	Leverage               *float64  `json:"leverage,omitempty"`
	Confidence             *float64  `json:"confidence,omitempty"`
	EntryPrice             *float64  `json:"entry_price,omitempty"`
	EntryTsMs              int64     `json:"entry_ts_ms"`
	ExitPrice              *float64  `json:"exit_price,omitempty"`
	ExitTsMs               int64     `json:"exit_ts_ms"`
	RealizedGrossPnl       *float64  `json:"realized_gross_pnl,omitempty"`
	RealizedNetPnl         *float64  `json:"realized_net_pnl,omitempty"`
	TotalCommissionDollars *float64  `json:"total_commission_dollars,omitempty"`
	CreatedAt              time.Time `json:"created_at,omitempty"`
}
