package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	RoomName       string      `json:"room_name"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

type RoomResponse struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	CreatedBy    uuid.UUID   `json:"created_by"`
	Participants []uuid.UUID `json:"participants"`
	CreatedAt    time.Time   `json:"created_at"`
}

type SendMessageRequest struct {
	RoomID  uuid.UUID `json:"room_id"`
	Content string    `json:"content"`
}

// GetMessagesRequest pages backwards through history: the cursor is an
// exclusive upper bound on created_at and defaults to "now" when empty.
type GetMessagesRequest struct {
	RoomID uuid.UUID `json:"room_id"`
	Cursor string    `json:"cursor,omitempty"` // RFC3339Nano
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type MessagesPageResponse struct {
	Messages   []MessageResponse `json:"messages"`
	NextCursor string            `json:"next_cursor,omitempty"`
	HasMore    bool              `json:"has_more"`
}

type RemoveParticipantsRequest struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}
