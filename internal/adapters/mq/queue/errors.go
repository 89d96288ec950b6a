package queue

import "errors"

// Sentinel enqueue failures.
var (
	ErrQueueFull = errors.New("training queue full")
	ErrClosed    = errors.New("training queue closed")
)
