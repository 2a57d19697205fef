package permission

import "errors"

var (
	// ErrForbidden means the actor lacks the permission required for the
	// operation.
	ErrForbidden = errors.New("forbidden")

	// ErrRoleNotFound means a role id referenced by a check does not exist.
	// This is a data-integrity failure, not a normal user-facing error.
	ErrRoleNotFound = errors.New("role not found")

	// ErrPermissionNotFound means the permission id/slug is not in the
	// catalog.
	ErrPermissionNotFound = errors.New("permission not found")

	// ErrGrantNotFound means the grant id does not exist.
	ErrGrantNotFound = errors.New("time window grant not found")

	// ErrInvalidRange means the grant window is malformed: start not
	// before end, or a start in the past.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrOverlappingGrant means an active grant for the same
	// (role, permission) already covers part of the requested window.
	ErrOverlappingGrant = errors.New("overlapping active grant exists")
)
