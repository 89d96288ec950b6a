package parlay

import "errors"

var (
	// ErrNoParlay is returned when too few matches qualify for a ticket.
	ErrNoParlay = errors.New("no parlay: not enough qualifying matches")
	// ErrUnknownRisk is returned for a risk tier without a policy.
	ErrUnknownRisk = errors.New("unknown risk tier")
)
