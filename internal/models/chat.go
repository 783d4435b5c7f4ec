package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatGroup is a conversation container. A private group is created
// lazily on first friendship acceptance between a pair and is never
// deleted afterwards, only deactivated, so message history survives
// unfriending and is restored on re-friending.
type ChatGroup struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name    *string   `gorm:"type:text" json:"name,omitempty"`
	Private bool      `gorm:"not null;default:true" json:"private"`
	Active  bool      `gorm:"not null;default:true" json:"active"`
}

func (ChatGroup) TableName() string { return "chat_group" }

func (g *ChatGroup) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// ProfileChatGroup links a member to a chat group. For private groups
// Name holds the counterpart's username, denormalized so listing a
// user's private chats needs no extra join.
type ProfileChatGroup struct {
	ProfileID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChatGroupID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Name        *string   `gorm:"type:text"`

	Profile   Profile   `gorm:"foreignKey:ProfileID;references:ID;constraint:OnDelete:CASCADE;"`
	ChatGroup ChatGroup `gorm:"foreignKey:ChatGroupID;references:ID;constraint:OnDelete:CASCADE;"`
}

func (ProfileChatGroup) TableName() string { return "profile_chat_group" }

// ChatMessage is a persisted chat message.
type ChatMessage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	FromProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"from_profile_id"`
	ChatGroupID   uuid.UUID `gorm:"type:uuid;not null;index" json:"chat_group_id"`
	Content       string    `json:"content"`

	FromProfile Profile   `gorm:"foreignKey:FromProfileID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
	ChatGroup   ChatGroup `gorm:"foreignKey:ChatGroupID;references:ID;constraint:OnDelete:CASCADE;" json:"-"`
}

func (ChatMessage) TableName() string { return "chat_message" }

func (m *ChatMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ChatMessageReadStatus is a per-member read pointer into a group,
// upserted on (profile_id, chat_group_id).
type ChatMessageReadStatus struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:profile_id_chat_group_id_idx"`
	ChatGroupID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:profile_id_chat_group_id_idx"`
	ChatMessageID uuid.UUID `gorm:"type:uuid;not null"`
	ReadAt        time.Time `gorm:"not null"`
}

func (ChatMessageReadStatus) TableName() string { return "chat_message_read_status" }

func (s *ChatMessageReadStatus) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Conversation is the query projection for a user's conversation list:
// the latest message of each active group plus that user's read marker.
type Conversation struct {
	FromProfileID       uuid.UUID  `json:"from_profile_id"`
	FromProfileUsername string     `json:"from_profile_username"`
	Content             string     `json:"content"`
	CreatedAt           time.Time  `json:"created_at"`
	ChatGroupID         uuid.UUID  `json:"chat_group_id"`
	ChatGroupName       string     `json:"chat_group_name"`
	ReadAt              *time.Time `json:"read_at,omitempty"`
}

// PrivateChat is the query projection for one entry of a user's private
// chat list: the group plus the counterpart member.
type PrivateChat struct {
	ChatGroupID uuid.UUID `json:"chat_group_id"`
	ProfileID   uuid.UUID `json:"profile_id"`
	Username    string    `json:"username"`
}
