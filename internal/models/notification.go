package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationData is the event envelope stored in the notification's
// json column.
type NotificationData struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

func (d NotificationData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *NotificationData) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("notification data: unsupported column type")
}

// Notification is one persisted notification row, created once per
// recipient per event by the fan-out worker.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
	ProfileID uuid.UUID        `gorm:"type:uuid;not null;index" json:"profile_id"`
	Data      NotificationData `gorm:"type:json;not null" json:"data"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	Visited   bool             `gorm:"not null;default:false" json:"visited"`

	Profile Profile `gorm:"foreignKey:ProfileID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
