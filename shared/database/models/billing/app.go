package billing

import (
	"time"

	"github.com/google/uuid"
)

// App status values
const (
	AppStatusDraft    = "DRAFT"
	AppStatusActive   = "ACTIVE"
	AppStatusArchived = "ARCHIVED"
)

// App is a marketplace application organizations can subscribe to.
type App struct {
	ID                uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string    `json:"name" gorm:"size:200;uniqueIndex;not null"`
	Slug              string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Description       string    `json:"description" gorm:"type:text"`
	Category          string    `json:"category" gorm:"size:100;index"`
	Status            string    `json:"status" gorm:"type:varchar(20);default:'DRAFT';not null;index"`
	Price             float64   `json:"price" gorm:"type:decimal(10,2);not null"` // monthly base price
	TrialDays         int       `json:"trial_days" gorm:"default:0;not null"`
	IsFeatured        bool      `json:"is_featured" gorm:"default:false;not null"`
	SortOrder         int       `json:"sort_order" gorm:"default:0;not null"`
	SubscriptionCount int       `json:"subscription_count" gorm:"default:0;not null"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
