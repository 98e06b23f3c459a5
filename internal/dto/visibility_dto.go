package dto

import "github.com/google/uuid"

type VisibilityActionRequest struct {
	TargetUserID uuid.UUID `json:"target_user_id"`
}

type AdminSetVisibilityRequest struct {
	SourceUserID uuid.UUID `json:"source_user_id"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	State        string    `json:"state"`
}
