package models

import "time"

// Snapshot records a filtered view saved for later publishing
type Snapshot struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"` // CSV the view was filtered from
	Spec       string    `json:"spec"`   // JSON-encoded filter spec
	RowCount   int       `json:"rowCount"`
	ConsumeSum float64   `json:"consumeSum"` // sum of consume over the saved rows
	CreatedAt  time.Time `json:"createdAt"`
	Published  bool      `json:"published"`
}
