package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrUnknownDriver = errors.New("unknown storage driver")
	ErrCorrupt       = errors.New("corrupt rating record")
)
