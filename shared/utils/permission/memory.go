package permission

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/database/models"
)

// MemoryCatalog implements CatalogStore in memory for tests.
type MemoryCatalog struct {
	mu          sync.RWMutex
	roles       map[uuid.UUID]*models.Role
	permissions map[uuid.UUID]*models.Permission
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		roles:       make(map[uuid.UUID]*models.Role),
		permissions: make(map[uuid.UUID]*models.Permission),
	}
}

// AddPermission registers a permission in the catalog.
func (c *MemoryCatalog) AddPermission(p models.Permission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := p
	c.permissions[p.ID] = &cp
}

// AddRole registers a role, wiring Permission relations onto its
// RolePermissions from the catalog.
func (c *MemoryCatalog) AddRole(r models.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := r
	for i := range cp.RolePermissions {
		if p, ok := c.permissions[cp.RolePermissions[i].PermissionID]; ok {
			cp.RolePermissions[i].Permission = *p
		}
	}
	c.roles[r.ID] = &cp
}

func (c *MemoryCatalog) GetRole(ctx context.Context, roleID uuid.UUID) (*models.Role, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	role, ok := c.roles[roleID]
	if !ok {
		return nil, ErrRoleNotFound
	}
	cp := *role
	return &cp, nil
}

func (c *MemoryCatalog) GetPermission(ctx context.Context, id uuid.UUID) (*models.Permission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.permissions[id]
	if !ok {
		return nil, ErrPermissionNotFound
	}
	cp := *p
	return &cp, nil
}

func (c *MemoryCatalog) GetPermissionBySlug(ctx context.Context, slug string) (*models.Permission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.permissions {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPermissionNotFound
}

func (c *MemoryCatalog) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	perms := make([]models.Permission, 0, len(c.permissions))
	for _, p := range c.permissions {
		perms = append(perms, *p)
	}
	return perms, nil
}

// MemoryGrantStore implements GrantStore with in-process concurrency
// safety. The single mutex serializes the overlap check with the insert,
// matching the per-(role, permission) atomicity the database store gets
// from its advisory lock.
type MemoryGrantStore struct {
	mu      sync.Mutex
	grants  map[uuid.UUID]*models.TimeWindowGrant
	catalog *MemoryCatalog
}

// NewMemoryGrantStore creates an empty grant store. The catalog, when
// given, is used to populate Permission relations on reads.
func NewMemoryGrantStore(catalog *MemoryCatalog) *MemoryGrantStore {
	return &MemoryGrantStore{
		grants:  make(map[uuid.UUID]*models.TimeWindowGrant),
		catalog: catalog,
	}
}

func (s *MemoryGrantStore) Create(ctx context.Context, grant *models.TimeWindowGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.grants {
		if g.RoleID == grant.RoleID && g.PermissionID == grant.PermissionID && g.IsActive &&
			Overlaps(g.StartsAt, g.ExpiresAt, grant.StartsAt, grant.ExpiresAt) {
			return ErrOverlappingGrant
		}
	}

	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	cp := *grant
	s.grants[cp.ID] = &cp
	return nil
}

func (s *MemoryGrantStore) Get(ctx context.Context, id uuid.UUID) (*models.TimeWindowGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return nil, ErrGrantNotFound
	}
	cp := *g
	return &cp, nil
}

func (s *MemoryGrantStore) ListByRole(ctx context.Context, roleID uuid.UUID) ([]models.TimeWindowGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeWindowGrant
	for _, g := range s.grants {
		if g.RoleID == roleID {
			out = append(out, s.withPermission(*g))
		}
	}
	return out, nil
}

func (s *MemoryGrantStore) ActiveGrants(ctx context.Context, roleID uuid.UUID, asOf time.Time) ([]models.TimeWindowGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TimeWindowGrant
	for _, g := range s.grants {
		if g.RoleID == roleID && g.IsActive && !g.StartsAt.After(asOf) && g.ExpiresAt.After(asOf) {
			out = append(out, s.withPermission(*g))
		}
	}
	return out, nil
}

func (s *MemoryGrantStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[id]
	if !ok {
		return ErrGrantNotFound
	}
	g.IsActive = false
	return nil
}

func (s *MemoryGrantStore) SweepExpired(ctx context.Context, asOf time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, g := range s.grants {
		if g.IsActive && !g.ExpiresAt.After(asOf) {
			g.IsActive = false
			count++
		}
	}
	return count, nil
}

// ActiveCount returns the number of active grants covering asOf for the
// (role, permission) pair. Test helper for the overlap invariant.
func (s *MemoryGrantStore) ActiveCount(roleID, permissionID uuid.UUID, asOf time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, g := range s.grants {
		if g.RoleID == roleID && g.PermissionID == permissionID && g.IsActive &&
			!g.StartsAt.After(asOf) && g.ExpiresAt.After(asOf) {
			count++
		}
	}
	return count
}

func (s *MemoryGrantStore) withPermission(g models.TimeWindowGrant) models.TimeWindowGrant {
	if s.catalog != nil {
		if p, err := s.catalog.GetPermission(context.Background(), g.PermissionID); err == nil {
			g.Permission = *p
		}
	}
	return g
}
