package model

import "errors"

var (
	ErrMalformedScore = errors.New("malformed score")
	ErrMalformedDate  = errors.New("malformed date")
)
