package permission

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tenanthub-backend/shared/database/models"
)

func TestCanManageRole(t *testing.T) {
	owner := &models.Role{IsOrganizationOwner: true, HierarchyLevel: 0}
	admin := &models.Role{HierarchyLevel: 10}
	member := &models.Role{HierarchyLevel: 50}
	peer := &models.Role{HierarchyLevel: 50}

	require.True(t, owner.IsOrganizationOwner)
	require.True(t, CanManageRole(owner, admin))
	require.True(t, CanManageRole(admin, member))
	require.False(t, CanManageRole(member, admin))
	require.False(t, CanManageRole(member, peer)) // equal levels cannot manage each other
	require.False(t, CanManageRole(admin, owner))
}
