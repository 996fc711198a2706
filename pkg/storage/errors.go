package storage

import "errors"

var (
	// ErrNotFound indicates the code does not exist, or is not active
	// for operations restricted to active mappings.
	ErrNotFound = errors.New("mapping not found")

	// ErrCodeTaken indicates the short code already exists, active or not.
	ErrCodeTaken = errors.New("short code already taken")

	// ErrStoreUnavailable wraps driver-level failures (timeouts, lost
	// connections) so callers can map them to a server error without
	// inspecting driver types.
	ErrStoreUnavailable = errors.New("store unavailable")
)
