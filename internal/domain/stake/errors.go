package stake

import "errors"

var (
	// ErrInvalidOdds is returned for decimal odds that are not above 1.
	ErrInvalidOdds = errors.New("odds must be greater than 1")
	// ErrInvalidProbability is returned for a probability outside [0,1].
	ErrInvalidProbability = errors.New("probability must be within [0,1]")
	// ErrInvalidBankroll is returned for a negative bankroll.
	ErrInvalidBankroll = errors.New("bankroll must not be negative")
)
