package dto

import (
	"time"

	"github.com/google/uuid"
)

type UpdateProfileRequest struct {
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Birthday  *string  `json:"birthday,omitempty"` // YYYY-MM-DD
	Tags      []string `json:"tags,omitempty"`
}

type ProfileResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Tags      []string   `json:"tags"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// PublicProfileResponse is what one user sees of another: no email, no
// role, just enough to decide whether to take their quiz.
type PublicProfileResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Tags      []string  `json:"tags"`
	HasQuiz   bool      `json:"has_quiz"`
}
