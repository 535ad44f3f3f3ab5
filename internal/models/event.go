package models

import "time"

// Event is an immutable lifecycle fact appended for a (branch, resource) pair.
// Rows are insert-only; the repository exposes no update or delete path.
type Event struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Branch    string    `gorm:"index:idx_events_pair;type:varchar(128);not null" json:"branch"`
	Resource  string    `gorm:"index:idx_events_pair;type:varchar(64);not null" json:"resource"`
	Status    Status    `gorm:"type:varchar(32);not null" json:"status"`
	Message   string    `gorm:"type:text" json:"message,omitempty"`
	Timestamp time.Time `gorm:"index;not null" json:"timestamp"`
}
