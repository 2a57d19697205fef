package audit

import (
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tenanthub-backend/shared/database/models/notification"
)

// Sink receives an immutable record of every grant/revoke and every
// subscription transition. Implementations must persist synchronously:
// callers only report success after the record is written.
type Sink interface {
	Record(organizationID *uuid.UUID, actorID *uuid.UUID, action, entityType, entityID string, oldValues, newValues map[string]interface{}) error
}

// Recorder writes audit records to the audit_logs table.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a database-backed audit sink.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record persists a single audit log entry.
func (r *Recorder) Record(organizationID *uuid.UUID, actorID *uuid.UUID, action, entityType, entityID string, oldValues, newValues map[string]interface{}) error {
	entry := notification.AuditLog{
		OrganizationID: organizationID,
		ActorID:        actorID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
	}
	if oldValues != nil {
		entry.OldValues = oldValues
	}
	if newValues != nil {
		entry.NewValues = newValues
	}
	return r.db.Create(&entry).Error
}

// MemorySink collects audit records in memory for tests.
type MemorySink struct {
	mu      sync.Mutex
	Entries []notification.AuditLog
}

// NewMemorySink creates an empty in-memory audit sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(organizationID *uuid.UUID, actorID *uuid.UUID, action, entityType, entityID string, oldValues, newValues map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := notification.AuditLog{
		OrganizationID: organizationID,
		ActorID:        actorID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
	}
	if oldValues != nil {
		entry.OldValues = oldValues
	}
	if newValues != nil {
		entry.NewValues = newValues
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// Actions returns the recorded action names in order.
func (m *MemorySink) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		actions = append(actions, e.Action)
	}
	return actions
}
