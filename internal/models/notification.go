package models

import (
	"time"

	"github.com/google/uuid"
)

const NotificationTypeMessage = "message"

type Notification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      string     `gorm:"size:50;not null" json:"type"`
	Body      string     `gorm:"size:500" json:"body"`
	RoomID    *uuid.UUID `gorm:"type:uuid" json:"room_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
