package permission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/database/models"
	"tenanthub-backend/shared/utils/audit"
)

// PermissionRolesManage is required to grant or revoke time-window
// permissions within an organization.
const PermissionRolesManage = "roles.manage"

// Actor identifies who is performing a grant operation.
type Actor struct {
	UserID uuid.UUID
	RoleID uuid.UUID
}

// GrantRequest describes a time-window grant to create.
type GrantRequest struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
	StartsAt     time.Time
	ExpiresAt    time.Time
	Reason       *string
}

// Granter creates, revokes and sweeps time-window grants, enforcing the
// authorization and overlap invariants and auditing every mutation.
type Granter struct {
	catalog  CatalogStore
	grants   GrantStore
	resolver *Resolver
	sink     audit.Sink
	clock    clock.Clock
}

// NewGranter wires a grant service over the given stores.
func NewGranter(catalog CatalogStore, grants GrantStore, sink audit.Sink, clk clock.Clock) *Granter {
	return &Granter{
		catalog:  catalog,
		grants:   grants,
		resolver: NewResolver(catalog, grants),
		sink:     sink,
		clock:    clk,
	}
}

// Resolver returns the resolver sharing this service's stores.
func (g *Granter) Resolver() *Resolver {
	return g.resolver
}

// Grant creates a time-window grant after checking, in order: the actor
// holds roles.manage on the role's organization (or is owner), the role
// and permission exist, the window is well-formed and not backdated, and
// no active grant overlaps it. The first failed check wins.
func (g *Granter) Grant(ctx context.Context, actor Actor, organizationID uuid.UUID, req GrantRequest) (*models.TimeWindowGrant, error) {
	now := g.clock.Now()

	if err := g.requireManage(ctx, actor, now); err != nil {
		return nil, err
	}

	role, err := g.catalog.GetRole(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if role.OrganizationID == nil || *role.OrganizationID != organizationID {
		return nil, ErrRoleNotFound
	}

	if _, err := g.catalog.GetPermission(ctx, req.PermissionID); err != nil {
		return nil, err
	}

	if !req.StartsAt.Before(req.ExpiresAt) {
		return nil, fmt.Errorf("%w: start date must be before expiration date", ErrInvalidRange)
	}
	if req.StartsAt.Before(now) {
		return nil, fmt.Errorf("%w: start date cannot be in the past", ErrInvalidRange)
	}

	grant := &models.TimeWindowGrant{
		ID:           uuid.New(),
		RoleID:       req.RoleID,
		PermissionID: req.PermissionID,
		StartsAt:     req.StartsAt,
		ExpiresAt:    req.ExpiresAt,
		IsActive:     true,
		Reason:       req.Reason,
		GrantedBy:    actor.UserID,
		CreatedAt:    now,
	}

	if err := g.grants.Create(ctx, grant); err != nil {
		return nil, err
	}

	if err := g.sink.Record(&organizationID, &actor.UserID,
		"time_based_permission.granted", "time_based_permission", grant.ID.String(),
		nil, map[string]interface{}{
			"role_id":       req.RoleID.String(),
			"permission_id": req.PermissionID.String(),
			"starts_at":     req.StartsAt,
			"expires_at":    req.ExpiresAt,
		}); err != nil {
		return nil, fmt.Errorf("failed to write audit record: %w", err)
	}

	return grant, nil
}

// Revoke deactivates a grant immediately. Revoking an already-inactive
// grant is a no-op success.
func (g *Granter) Revoke(ctx context.Context, actor Actor, organizationID uuid.UUID, grantID uuid.UUID) error {
	now := g.clock.Now()

	if err := g.requireManage(ctx, actor, now); err != nil {
		return err
	}

	grant, err := g.grants.Get(ctx, grantID)
	if err != nil {
		return err
	}

	role, err := g.catalog.GetRole(ctx, grant.RoleID)
	if err != nil {
		return err
	}
	if role.OrganizationID == nil || *role.OrganizationID != organizationID {
		return ErrForbidden
	}

	if err := g.grants.Deactivate(ctx, grantID); err != nil {
		return err
	}

	if err := g.sink.Record(&organizationID, &actor.UserID,
		"time_based_permission.revoked", "time_based_permission", grantID.String(),
		nil, nil); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}

	return nil
}

// ListByRole returns all grants for a role, requiring roles.view on the
// actor.
func (g *Granter) ListByRole(ctx context.Context, actor Actor, organizationID uuid.UUID, roleID uuid.UUID) ([]models.TimeWindowGrant, error) {
	now := g.clock.Now()

	allowed, err := g.resolver.HasPermission(ctx, actor.RoleID, "roles.view", now)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	role, err := g.catalog.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role.OrganizationID == nil || *role.OrganizationID != organizationID {
		return nil, ErrRoleNotFound
	}

	return g.grants.ListByRole(ctx, roleID)
}

// SweepExpired deactivates every active grant whose window has ended.
// Re-running finds nothing left to deactivate.
func (g *Granter) SweepExpired(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := g.grants.SweepExpired(ctx, asOf)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		if err := g.sink.Record(nil, nil,
			"time_based_permission.expired", "time_based_permission", "batch",
			nil, map[string]interface{}{"deactivated": count, "as_of": asOf}); err != nil {
			log.Printf("❌ Failed to audit grant sweep: %v", err)
		}
	}

	return count, nil
}

func (g *Granter) requireManage(ctx context.Context, actor Actor, now time.Time) error {
	allowed, err := g.resolver.HasPermission(ctx, actor.RoleID, PermissionRolesManage, now)
	if err != nil {
		if errors.Is(err, ErrRoleNotFound) {
			return err
		}
		return fmt.Errorf("failed to check actor permissions: %w", err)
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}
