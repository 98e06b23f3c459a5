package models

import (
	"time"

	"github.com/google/uuid"
)

// QuizScore records a player's one and only submission against an owner's
// quiz. The composite unique index is the authority for the
// one-submission-per-pair rule; re-submissions are rejected, never
// overwritten.
type QuizScore struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PlayerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_scores_pair,priority:1" json:"player_id"`
	OwnerID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_scores_pair,priority:2;index" json:"owner_id"`
	MatchPercent int       `gorm:"not null" json:"match_percent"`
	Passed       bool      `gorm:"not null" json:"passed"`
	CreatedAt    time.Time `json:"created_at"`
	Player       User      `gorm:"foreignKey:PlayerID" json:"-"`
	Owner        User      `gorm:"foreignKey:OwnerID" json:"-"`
}
