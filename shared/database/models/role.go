package models

import (
	"time"

	"github.com/google/uuid"
)

type Role struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                string     `json:"name" gorm:"size:100;not null"`
	Slug                string     `json:"slug" gorm:"size:100;not null;index"`
	Description         string     `json:"description" gorm:"type:text"`
	OrganizationID      *uuid.UUID `json:"organization_id" gorm:"type:uuid;index"` // nil for system-wide roles
	IsOrganizationOwner bool       `json:"is_organization_owner" gorm:"default:false;not null"`
	IsActive            bool       `json:"is_active" gorm:"default:true;not null"`
	HierarchyLevel      int        `json:"hierarchy_level" gorm:"default:100;not null"` // lower = more privileged
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Relations
	Organization    *Organization    `json:"organization,omitempty" gorm:"foreignKey:OrganizationID"`
	RolePermissions []RolePermission `json:"role_permissions,omitempty" gorm:"foreignKey:RoleID"`
}

// RolePermission assigns a base permission to a role.
type RolePermission struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RoleID       uuid.UUID `json:"role_id" gorm:"type:uuid;not null;uniqueIndex:idx_role_permission"`
	PermissionID uuid.UUID `json:"permission_id" gorm:"type:uuid;not null;uniqueIndex:idx_role_permission"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Role       Role       `json:"role" gorm:"foreignKey:RoleID"`
	Permission Permission `json:"permission" gorm:"foreignKey:PermissionID"`
}
