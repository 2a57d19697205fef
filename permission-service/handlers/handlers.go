package handlers

import (
	"errors"
	"net/http"

	"tenanthub-backend/shared/utils/permission"
)

var granter *permission.Granter

// Init wires the grant service used by every handler in this package.
// Called once from main before routes are registered.
func Init(g *permission.Granter) {
	granter = g
}

// statusForError maps permission service errors onto HTTP status codes.
// The precondition order of the grant service means the first failed
// check decides the status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, permission.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, permission.ErrRoleNotFound),
		errors.Is(err, permission.ErrPermissionNotFound),
		errors.Is(err, permission.ErrGrantNotFound):
		return http.StatusNotFound
	case errors.Is(err, permission.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, permission.ErrOverlappingGrant):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
