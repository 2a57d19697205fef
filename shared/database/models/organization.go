package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is the tenant boundary for all permission and
// subscription state.
type Organization struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"size:200;not null"`
	Slug      string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Email     string    `json:"email" gorm:"size:200"`
	Status    string    `json:"status" gorm:"default:'ACTIVE'"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
