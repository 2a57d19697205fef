package permission

import "tenanthub-backend/shared/database/models"

// CanManageRole reports whether an actor role may manage (assign, edit,
// delete) a target role. Organization owners manage everything;
// otherwise the actor must sit strictly higher in the hierarchy, where a
// lower HierarchyLevel means more privilege. Equal levels cannot manage
// each other.
func CanManageRole(actor, target *models.Role) bool {
	if actor.IsOrganizationOwner {
		return true
	}
	if target.IsOrganizationOwner {
		return false
	}
	return actor.HierarchyLevel < target.HierarchyLevel
}
