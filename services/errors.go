package services

import "errors"

var (
	// ErrMissionNotFound is returned when a mission id does not exist.
	ErrMissionNotFound = errors.New("mission not found")
	// ErrUserNotFound is returned when settlement targets a missing user row.
	ErrUserNotFound = errors.New("user not found")
	// ErrCatalogEmpty means no templates are configured for the day's tier.
	// It is a configuration problem and retrying will not help until the catalog is fixed.
	ErrCatalogEmpty = errors.New("no mission templates configured for difficulty")
	// ErrForbidden is returned when an authenticated caller touches another user's mission.
	ErrForbidden = errors.New("mission belongs to another user")
	// ErrLockTimeout is returned when the allocation lock cannot be taken before the deadline.
	ErrLockTimeout = errors.New("timed out waiting for allocation lock")
	// ErrInvalidTemplate is returned for catalog entries that fail validation.
	ErrInvalidTemplate = errors.New("invalid mission template")
)
