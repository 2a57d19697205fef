package permission

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models"
)

// Set is an effective permission set keyed by slug. It is derived per
// check and never cached beyond the request scope.
type Set map[string]struct{}

// Has reports whether the set contains the permission slug.
func (s Set) Has(slug string) bool {
	_, ok := s[slug]
	return ok
}

// Slugs returns the permissions in the set, sorted.
func (s Set) Slugs() []string {
	slugs := make([]string, 0, len(s))
	for slug := range s {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// CatalogStore is the read-only lookup over permissions and role
// assignments.
type CatalogStore interface {
	// GetRole returns the role with its base permission assignments, or
	// ErrRoleNotFound.
	GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error)
	// GetPermission returns a permission by id, or ErrPermissionNotFound.
	GetPermission(ctx context.Context, id uuid.UUID) (*models.Permission, error)
	// GetPermissionBySlug returns a permission by slug, or
	// ErrPermissionNotFound.
	GetPermissionBySlug(ctx context.Context, slug string) (*models.Permission, error)
	// ListPermissions returns the whole catalog.
	ListPermissions(ctx context.Context) ([]models.Permission, error)
}

// GrantStore is CRUD plus the overlap query over time-window grants.
// Create must be atomic per (role, permission): two concurrent creates
// with overlapping windows must yield one success and one
// ErrOverlappingGrant.
type GrantStore interface {
	Create(ctx context.Context, grant *models.TimeWindowGrant) error
	Get(ctx context.Context, id uuid.UUID) (*models.TimeWindowGrant, error)
	ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.TimeWindowGrant, error)
	// ActiveGrants returns grants with is_active and
	// starts_at <= asOf < expires_at. Always reads current state.
	ActiveGrants(ctx context.Context, roleID uuid.UUID, asOf time.Time) ([]models.TimeWindowGrant, error)
	// Deactivate flips is_active off. Deactivating an inactive grant is a
	// no-op success.
	Deactivate(ctx context.Context, id uuid.UUID) error
	// SweepExpired deactivates every active grant with expires_at <= asOf
	// and returns the count. Safe to call concurrently and repeatedly.
	SweepExpired(ctx context.Context, asOf time.Time) (int64, error)
}

// Overlaps reports whether the half-open intervals [a1,b1) and [a2,b2)
// intersect.
func Overlaps(a1, b1, a2, b2 time.Time) bool {
	return a1.Before(b2) && a2.Before(b1)
}
