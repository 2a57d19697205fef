package notification

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog is an immutable record of a decision-relevant mutation:
// grant/revoke of time-window permissions and every subscription
// lifecycle transition.
type AuditLog struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrganizationID *uuid.UUID  `json:"organization_id,omitempty" gorm:"type:uuid;index"`
	ActorID        *uuid.UUID  `json:"actor_id,omitempty" gorm:"type:uuid;index"` // nil for system actions
	Action         string      `json:"action" gorm:"type:varchar(100);not null;index"`
	EntityType     string      `json:"entity_type" gorm:"type:varchar(100);not null"`
	EntityID       string      `json:"entity_id" gorm:"type:varchar(100);not null;index"`
	OldValues      interface{} `json:"old_values,omitempty" gorm:"type:jsonb;serializer:json"`
	NewValues      interface{} `json:"new_values,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt      time.Time   `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName returns the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
