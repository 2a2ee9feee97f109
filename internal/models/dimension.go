package models

import "time"

// Model is an AI trading model that other rows reference by id.
type Model struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Symbol is a traded instrument such as "BTC".
type Symbol struct {
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}
