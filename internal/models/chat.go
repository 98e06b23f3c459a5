package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRoom is deleted as soon as its last participant leaves or is removed.
type ChatRoom struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string            `gorm:"size:100;not null" json:"name"`
	CreatedBy    uuid.UUID         `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
	Participants []ChatParticipant `gorm:"foreignKey:RoomID" json:"participants,omitempty"`
}

// ChatParticipant is room membership; one row per (room, user).
type ChatParticipant struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participants_room_user,priority:1" json:"room_id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_participants_room_user,priority:2;index" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
}

// ChatMessage content is ciphertext at rest; the chat service decrypts on
// read. The (room, created_at) index backs the cursor scans.
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID    uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_messages_room_created,priority:1" json:"room_id"`
	SenderID  uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Content   string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `gorm:"index:idx_chat_messages_room_created,priority:2,sort:desc" json:"created_at"`
}
