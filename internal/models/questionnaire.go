package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Questionnaire holds a user's quiz document. One row per owner.
type Questionnaire struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Quiz      datatypes.JSON `gorm:"type:jsonb" json:"quiz"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Owner     User           `gorm:"foreignKey:OwnerID" json:"-"`
}
