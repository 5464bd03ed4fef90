package models

import "time"

// Label sources accepted by the API and the labels.source CHECK constraint.
const (
	LabelSourceUser   = "user"
	LabelSourceSystem = "system"
)

// Label is an append-only annotation on an event.
type Label struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Label     string    `json:"label"`
	Source    string    `json:"source"` // user | system
	CreatedAt time.Time `json:"created_at"`
}

// ValidLabelSource reports whether s is one of the enumerated sources.
func ValidLabelSource(s string) bool {
	return s == LabelSourceUser || s == LabelSourceSystem
}
