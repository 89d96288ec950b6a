package prediction

import "errors"

// ErrInvalidRequest marks a prediction request that cannot be served.
var ErrInvalidRequest = errors.New("invalid prediction request")
