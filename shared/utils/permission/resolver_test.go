package permission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenanthub-backend/shared/database/models"
)

func seedCatalog(t *testing.T) (*MemoryCatalog, map[string]models.Permission) {
	t.Helper()
	catalog := NewMemoryCatalog()
	perms := make(map[string]models.Permission)
	for _, slug := range []string{"users.view", "users.manage", "roles.view", "roles.manage", "billing.view"} {
		p := models.Permission{ID: uuid.New(), Slug: slug, Name: slug, Category: "core"}
		catalog.AddPermission(p)
		perms[slug] = p
	}
	return catalog, perms
}

func roleWithPermissions(orgID uuid.UUID, perms ...models.Permission) models.Role {
	role := models.Role{
		ID:             uuid.New(),
		Name:           "Member",
		Slug:           "member",
		OrganizationID: &orgID,
		IsActive:       true,
		HierarchyLevel: 50,
	}
	for _, p := range perms {
		role.RolePermissions = append(role.RolePermissions, models.RolePermission{
			ID:           uuid.New(),
			RoleID:       role.ID,
			PermissionID: p.ID,
		})
	}
	return role
}

func TestResolveMergesBaseAndActiveGrants(t *testing.T) {
	ctx := context.Background()
	catalog, perms := seedCatalog(t)
	grants := NewMemoryGrantStore(catalog)
	resolver := NewResolver(catalog, grants)

	orgID := uuid.New()
	role := roleWithPermissions(orgID, perms["users.view"])
	catalog.AddRole(role)

	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	require.NoError(t, grants.Create(ctx, &models.TimeWindowGrant{
		RoleID:       role.ID,
		PermissionID: perms["billing.view"].ID,
		StartsAt:     t1,
		ExpiresAt:    t2,
		IsActive:     true,
		GrantedBy:    uuid.New(),
	}))

	// Before the window: base only.
	set, err := resolver.Resolve(ctx, role.ID, t1.Add(-time.Second))
	require.NoError(t, err)
	require.Equal(t, []string{"users.view"}, set.Slugs())

	// Inside the window (start inclusive): base plus grant.
	set, err = resolver.Resolve(ctx, role.ID, t1)
	require.NoError(t, err)
	require.Equal(t, []string{"billing.view", "users.view"}, set.Slugs())

	// At expiry (end exclusive): base only again.
	set, err = resolver.Resolve(ctx, role.ID, t2)
	require.NoError(t, err)
	require.Equal(t, []string{"users.view"}, set.Slugs())
}

func TestResolveOwnerBypassReturnsUniversalSet(t *testing.T) {
	ctx := context.Background()
	catalog, _ := seedCatalog(t)
	grants := NewMemoryGrantStore(catalog)
	resolver := NewResolver(catalog, grants)

	orgID := uuid.New()
	owner := models.Role{
		ID:                  uuid.New(),
		Name:                "Owner",
		Slug:                "owner",
		OrganizationID:      &orgID,
		IsOrganizationOwner: true,
		IsActive:            true,
	}
	catalog.AddRole(owner)

	set, err := resolver.Resolve(ctx, owner.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, set, 5)
	require.True(t, set.Has("roles.manage"))
}

func TestResolveExcludesRevokedGrantImmediately(t *testing.T) {
	ctx := context.Background()
	catalog, perms := seedCatalog(t)
	grants := NewMemoryGrantStore(catalog)
	resolver := NewResolver(catalog, grants)

	orgID := uuid.New()
	role := roleWithPermissions(orgID, perms["users.view"])
	catalog.AddRole(role)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	grant := &models.TimeWindowGrant{
		RoleID:       role.ID,
		PermissionID: perms["users.manage"].ID,
		StartsAt:     start,
		ExpiresAt:    start.Add(24 * time.Hour),
		IsActive:     true,
		GrantedBy:    uuid.New(),
	}
	require.NoError(t, grants.Create(ctx, grant))

	mid := start.Add(time.Hour)
	has, err := resolver.HasPermission(ctx, role.ID, "users.manage", mid)
	require.NoError(t, err)
	require.True(t, has)

	// Revoke mid-window; the very next resolve must exclude it.
	require.NoError(t, grants.Deactivate(ctx, grant.ID))
	has, err = resolver.HasPermission(ctx, role.ID, "users.manage", mid)
	require.NoError(t, err)
	require.False(t, has)
}

func TestResolveUnknownRoleFails(t *testing.T) {
	ctx := context.Background()
	catalog, _ := seedCatalog(t)
	resolver := NewResolver(catalog, NewMemoryGrantStore(catalog))

	_, err := resolver.Resolve(ctx, uuid.New(), time.Now())
	require.ErrorIs(t, err, ErrRoleNotFound)
}
