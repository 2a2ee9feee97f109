package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLatest is the most recent price seen for a symbol. There is one row
// per symbol and every import overwrites it.
type PriceLatest struct {
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`
	TimestampMs int64           `json:"ts_ms"`
	UpdatedAt   time.Time       `json:"updated_at,omitempty"`
}
