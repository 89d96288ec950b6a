package rating

import "errors"

// Sentinel kinds for rating store errors.
var (
	ErrNotFound           = errors.New("team not found")
	ErrInvalidLimit       = errors.New("invalid ranking limit")
	ErrStorageUnavailable = errors.New("rating storage unavailable")
)
