package models

import "time"

// Position side and status constants
const (
	PositionSideLong   = "long"
	PositionStatusOpen = "open"
)

// Position is an open position held by a model. Its ID is the synthetic
// key model_id:symbol:entry_ts_ms.
type Position struct {
	ID         string    `json:"id"`
	ModelID    *string   `json:"model_id,omitempty"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	EntryPrice *float64  `json:"entry_price,omitempty"`
	Quantity   *float64  `json:"quantity,omitempty"`
	Leverage   *float64  `json:"leverage,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	EntryTsMs  int64     `json:"entry_ts_ms"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
