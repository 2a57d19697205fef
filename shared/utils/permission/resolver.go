package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Resolver computes a role's effective permission set at a point in time:
// base permissions plus currently active time-window grants. It holds no
// state and performs pure reads, so every call reflects the latest
// committed grants and revocations.
type Resolver struct {
	catalog CatalogStore
	grants  GrantStore
}

// NewResolver creates a resolver over the given stores.
func NewResolver(catalog CatalogStore, grants GrantStore) *Resolver {
	return &Resolver{catalog: catalog, grants: grants}
}

// Resolve returns the effective permission set of roleID as of the given
// instant. Organization-owner roles receive the universal set.
func (r *Resolver) Resolve(ctx context.Context, roleID uuid.UUID, asOf time.Time) (Set, error) {
	role, err := r.catalog.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if role.IsOrganizationOwner {
		all, err := r.catalog.ListPermissions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load permission catalog: %w", err)
		}
		set := make(Set, len(all))
		for _, p := range all {
			set[p.Slug] = struct{}{}
		}
		return set, nil
	}

	set := make(Set, len(role.RolePermissions))
	for _, rp := range role.RolePermissions {
		set[rp.Permission.Slug] = struct{}{}
	}

	active, err := r.grants.ActiveGrants(ctx, roleID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load active grants: %w", err)
	}
	for _, g := range active {
		slug := g.Permission.Slug
		if slug == "" {
			p, err := r.catalog.GetPermission(ctx, g.PermissionID)
			if err != nil {
				return nil, err
			}
			slug = p.Slug
		}
		set[slug] = struct{}{}
	}

	return set, nil
}

// HasPermission reports whether roleID holds the permission slug as of
// the given instant.
func (r *Resolver) HasPermission(ctx context.Context, roleID uuid.UUID, slug string, asOf time.Time) (bool, error) {
	set, err := r.Resolve(ctx, roleID, asOf)
	if err != nil {
		return false, err
	}
	return set.Has(slug), nil
}
