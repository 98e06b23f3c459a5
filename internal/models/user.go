package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxUserTags bounds the interest-tag list on a profile.
const MaxUserTags = 10

type User struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string                      `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password  string                      `gorm:"not null" json:"-"`
	FirstName string                      `gorm:"size:100" json:"first_name"`
	LastName  string                      `gorm:"size:100" json:"last_name"`
	Birthday  *time.Time                  `gorm:"type:date" json:"birthday,omitempty"`
	Role      string                      `gorm:"size:20;default:'user'" json:"role"`
	Tags      datatypes.JSONSlice[string] `json:"tags"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
	DeletedAt gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
