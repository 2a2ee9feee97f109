package models

import (
	"encoding/json"
	"time"
)

// ModelAnalytics stores the opaque analytics document of a model.
type ModelAnalytics struct {
	ModelID   string          `json:"model_id"`
	Payload   json.RawMessage `json:"payload"`
	UpdatedAt time.Time       `json:"updated_at"`
}
