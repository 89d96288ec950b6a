package signal

import "errors"

// ErrInvalidSignal marks a signal the aggregator cannot apply.
var ErrInvalidSignal = errors.New("invalid signal")
