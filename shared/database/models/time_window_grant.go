package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeWindowGrant extends a role's permission set for the half-open
// interval [StartsAt, ExpiresAt). Rows are never mutated after creation
// except to flip IsActive off; corrections are revoke + recreate.
type TimeWindowGrant struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoleID       uuid.UUID  `json:"role_id" gorm:"type:uuid;not null;index:idx_grant_role_permission"`
	PermissionID uuid.UUID  `json:"permission_id" gorm:"type:uuid;not null;index:idx_grant_role_permission"`
	StartsAt     time.Time  `json:"starts_at" gorm:"not null"`
	ExpiresAt    time.Time  `json:"expires_at" gorm:"not null;index"`
	IsActive     bool       `json:"is_active" gorm:"default:true;not null;index"`
	Reason       *string    `json:"reason,omitempty" gorm:"type:text"`
	GrantedBy    uuid.UUID  `json:"granted_by" gorm:"type:uuid;not null"`
	CreatedAt    time.Time  `json:"created_at"`

	// Relations
	Role       Role       `json:"role" gorm:"foreignKey:RoleID"`
	Permission Permission `json:"permission" gorm:"foreignKey:PermissionID"`
	Granter    *User      `json:"granter,omitempty" gorm:"foreignKey:GrantedBy"`
}
