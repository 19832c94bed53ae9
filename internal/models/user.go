package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a chat participant. Identity validation happens at the
// edge (JWT); this record exists for the persistence layer and for the
// Telegram bridge link.
type User struct {
	ID string `gorm:"primaryKey" json:"id"`
	// Name is the display name shown to other participants.
	Name string `json:"name"`
	// TelegramChatID is the linked Telegram chat, 0 when not linked.
	TelegramChatID int64 `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
