package models

import "time"

// Import event type constants
const (
	EventSectionImported = "SECTION_IMPORTED"
	EventSectionSkipped  = "SECTION_SKIPPED"
	EventImportCompleted = "IMPORT_COMPLETED"
)

// ImportEvent is published to Kafka as the importer makes progress
type ImportEvent struct {
	EventType string    `json:"event_type"`
	Section   string    `json:"section,omitempty"`
	Count     int       `json:"count"`
	Reason    string    `json:"reason,omitempty"`
	Models    int       `json:"models,omitempty"`
	Symbols   int       `json:"symbols,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
