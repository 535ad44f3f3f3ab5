package models

import (
	"time"

	"gorm.io/datatypes"
)

// Branch represents a named, ephemeral branch of an external stateful resource.
// A branch is identified by (Name, Resource). It is never physically removed;
// deletion is a terminal status derived from the event log, not a row removal.
type Branch struct {
	Name          string         `gorm:"primaryKey;type:varchar(128)" json:"name" validate:"required"`
	Resource      string         `gorm:"primaryKey;type:varchar(64)" json:"resource" validate:"required"`
	Parent        string         `gorm:"not null" json:"parent" validate:"required"`
	Strategy      string         `gorm:"type:varchar(64);not null" json:"strategy" validate:"required"`
	Configuration datatypes.JSON `gorm:"type:jsonb" json:"configuration,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// Status is derived from the branch's latest event at read time.
	// It is never stored on the row.
	Status Status `gorm:"-" json:"status"`
}
