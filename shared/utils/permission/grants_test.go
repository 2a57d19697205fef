package permission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tenanthub-backend/shared/clock"
	"tenanthub-backend/shared/database/models"
	"tenanthub-backend/shared/utils/audit"
)

type granterFixture struct {
	granter *Granter
	catalog *MemoryCatalog
	grants  *MemoryGrantStore
	sink    *audit.MemorySink
	clock   *clock.Mock
	orgID   uuid.UUID
	manager Actor
	role    models.Role
	perms   map[string]models.Permission
}

func newGranterFixture(t *testing.T) *granterFixture {
	t.Helper()
	catalog, perms := seedCatalog(t)
	grants := NewMemoryGrantStore(catalog)
	sink := audit.NewMemorySink()
	clk := clock.NewMock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	orgID := uuid.New()
	managerRole := roleWithPermissions(orgID, perms["roles.manage"], perms["roles.view"])
	catalog.AddRole(managerRole)

	targetRole := roleWithPermissions(orgID, perms["users.view"])
	catalog.AddRole(targetRole)

	return &granterFixture{
		granter: NewGranter(catalog, grants, sink, clk),
		catalog: catalog,
		grants:  grants,
		sink:    sink,
		clock:   clk,
		orgID:   orgID,
		manager: Actor{UserID: uuid.New(), RoleID: managerRole.ID},
		role:    targetRole,
		perms:   perms,
	}
}

func (f *granterFixture) request(slug string, startOffset, duration time.Duration) GrantRequest {
	start := f.clock.Now().Add(startOffset)
	return GrantRequest{
		RoleID:       f.role.ID,
		PermissionID: f.perms[slug].ID,
		StartsAt:     start,
		ExpiresAt:    start.Add(duration),
	}
}

func TestGrantHappyPathAudits(t *testing.T) {
	f := newGranterFixture(t)

	grant, err := f.granter.Grant(context.Background(), f.manager, f.orgID, f.request("billing.view", time.Hour, 24*time.Hour))
	require.NoError(t, err)
	require.True(t, grant.IsActive)
	require.Equal(t, f.manager.UserID, grant.GrantedBy)
	require.Equal(t, []string{"time_based_permission.granted"}, f.sink.Actions())
}

func TestGrantRequiresRolesManage(t *testing.T) {
	f := newGranterFixture(t)
	nobody := Actor{UserID: uuid.New(), RoleID: f.role.ID} // users.view only

	_, err := f.granter.Grant(context.Background(), nobody, f.orgID, f.request("billing.view", time.Hour, time.Hour))
	require.ErrorIs(t, err, ErrForbidden)
	require.Empty(t, f.sink.Actions())
}

func TestGrantOwnerBypassesPermissionCheck(t *testing.T) {
	f := newGranterFixture(t)
	ownerRole := models.Role{ID: uuid.New(), OrganizationID: &f.orgID, IsOrganizationOwner: true, IsActive: true}
	f.catalog.AddRole(ownerRole)
	owner := Actor{UserID: uuid.New(), RoleID: ownerRole.ID}

	_, err := f.granter.Grant(context.Background(), owner, f.orgID, f.request("billing.view", time.Hour, time.Hour))
	require.NoError(t, err)
}

func TestGrantRoleMustBelongToOrganization(t *testing.T) {
	f := newGranterFixture(t)

	otherOrg := uuid.New()
	foreign := roleWithPermissions(otherOrg, f.perms["users.view"])
	f.catalog.AddRole(foreign)

	req := f.request("billing.view", time.Hour, time.Hour)
	req.RoleID = foreign.ID
	_, err := f.granter.Grant(context.Background(), f.manager, f.orgID, req)
	require.ErrorIs(t, err, ErrRoleNotFound)
}

func TestGrantUnknownPermission(t *testing.T) {
	f := newGranterFixture(t)
	req := f.request("billing.view", time.Hour, time.Hour)
	req.PermissionID = uuid.New()

	_, err := f.granter.Grant(context.Background(), f.manager, f.orgID, req)
	require.ErrorIs(t, err, ErrPermissionNotFound)
}

func TestGrantRejectsMalformedWindow(t *testing.T) {
	f := newGranterFixture(t)

	// start == end
	req := f.request("billing.view", time.Hour, 0)
	_, err := f.granter.Grant(context.Background(), f.manager, f.orgID, req)
	require.ErrorIs(t, err, ErrInvalidRange)

	// backdated start
	req = f.request("billing.view", -time.Hour, 2*time.Hour)
	_, err = f.granter.Grant(context.Background(), f.manager, f.orgID, req)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestGrantRejectsOverlap(t *testing.T) {
	f := newGranterFixture(t)
	ctx := context.Background()

	_, err := f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", time.Hour, 48*time.Hour))
	require.NoError(t, err)

	// Overlaps the tail of the first window.
	_, err = f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", 24*time.Hour, 48*time.Hour))
	require.ErrorIs(t, err, ErrOverlappingGrant)

	// Touching windows do not overlap (half-open intervals).
	_, err = f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", 49*time.Hour, time.Hour))
	require.NoError(t, err)
}

func TestConcurrentOverlappingGrantsOneWins(t *testing.T) {
	f := newGranterFixture(t)
	ctx := context.Background()

	const N = 20
	var wg sync.WaitGroup
	results := make(chan error, N)
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", time.Hour, 24*time.Hour))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, ErrOverlappingGrant)
			conflicts++
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, N-1, conflicts)

	at := f.clock.Now().Add(2 * time.Hour)
	require.Equal(t, 1, f.grants.ActiveCount(f.role.ID, f.perms["billing.view"].ID, at))
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := newGranterFixture(t)
	ctx := context.Background()

	grant, err := f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", time.Hour, 24*time.Hour))
	require.NoError(t, err)

	require.NoError(t, f.granter.Revoke(ctx, f.manager, f.orgID, grant.ID))
	require.NoError(t, f.granter.Revoke(ctx, f.manager, f.orgID, grant.ID))

	stored, err := f.grants.Get(ctx, grant.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	f := newGranterFixture(t)
	ctx := context.Background()

	_, err := f.granter.Grant(ctx, f.manager, f.orgID, f.request("billing.view", time.Hour, 24*time.Hour))
	require.NoError(t, err)
	_, err = f.granter.Grant(ctx, f.manager, f.orgID, f.request("users.manage", time.Hour, 48*time.Hour))
	require.NoError(t, err)

	// Past both windows.
	f.clock.Advance(72 * time.Hour)
	count, err := f.granter.SweepExpired(ctx, f.clock.Now())
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	count, err = f.granter.SweepExpired(ctx, f.clock.Now())
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}
