package models

import "github.com/google/uuid"

// Profile represents a registered user as seen by this service.
// Profiles are owned by the identity subsystem; this service references
// them but never mutates them.
type Profile struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"size:255;unique;not null" json:"username"`
}

func (Profile) TableName() string { return "profile" }
