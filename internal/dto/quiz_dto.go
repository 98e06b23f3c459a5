package dto

import (
	"github.com/google/uuid"
	"github.com/pairly-app/pairly-backend/internal/models"
)

// EditQuizRequest carries the full replacement quiz document. The stored
// document type doubles as the wire type.
type EditQuizRequest struct {
	Quiz models.Quiz `json:"quiz"`
}

// QuizPublicView is the answer-stripped form shown to players: question and
// option text only, no correct indices, scores or threshold.
type QuizPublicView struct {
	OwnerID   uuid.UUID            `json:"owner_id"`
	Questions []PublicQuizQuestion `json:"questions"`
}

type PublicQuizQuestion struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type SubmitQuizRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
	Answers      []int     `json:"answers"`
}

type SubmitQuizResponse struct {
	MatchPercent int  `json:"match_percent"`
	Passed       bool `json:"passed"`
}

type MatchPercentResponse struct {
	MatchPercent int `json:"match_percent"`
}
