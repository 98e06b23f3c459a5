package dto

import (
	"time"

	"github.com/google/uuid"
)

type NotificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Body      string     `json:"body"`
	RoomID    *uuid.UUID `json:"room_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

type NotificationListResponse struct {
	Data  []NotificationResponse `json:"data"`
	Total int64                  `json:"total"`
}
