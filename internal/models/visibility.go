package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Visibility is how a source user currently regards a target user.
// Absence of a row means the target has never been evaluated ("none").
type Visibility string

const (
	VisibilityVisible   Visibility = "visible"
	VisibilityDismissed Visibility = "dismissed"
	VisibilityBlocked   Visibility = "blocked"
)

var ErrUnknownVisibility = errors.New("unknown visibility state")

// ParseVisibility maps admin-supplied state strings onto the closed state set.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case VisibilityVisible, VisibilityDismissed, VisibilityBlocked:
		return Visibility(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVisibility, s)
}

// UserVisibility is a directed edge: the source's view of the target.
// At most one row exists per ordered (source, target) pair; the reverse
// direction is an independent edge.
type UserVisibility struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SourceUserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_visibility_pair,priority:1" json:"source_user_id"`
	TargetUserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_visibility_pair,priority:2;index" json:"target_user_id"`
	Visibility   Visibility `gorm:"size:20;not null" json:"visibility"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Source       User       `gorm:"foreignKey:SourceUserID" json:"-"`
	Target       User       `gorm:"foreignKey:TargetUserID" json:"-"`
}

func (UserVisibility) TableName() string {
	return "user_visibilities"
}
