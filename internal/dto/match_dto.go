package dto

import (
	"time"

	"github.com/google/uuid"
)

// MatchItem is one visible edge from the viewer, enriched with the target's
// profile basics and the viewer's own score against the target when present.
type MatchItem struct {
	UserID       uuid.UUID `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Tags         []string  `json:"tags"`
	MatchPercent *int      `json:"match_percent,omitempty"`
	MatchedAt    time.Time `json:"matched_at"`
}

type MatchListResponse struct {
	Data     []MatchItem `json:"data"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

type MatchCountResponse struct {
	Pages int `json:"pages"`
}

// DiscoverResponse is one randomly sampled, never-evaluated candidate.
type DiscoverResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Tags      []string  `json:"tags"`
	HasQuiz   bool      `json:"has_quiz"`
}
