package dbbadger

import "errors"

var (
	// ErrExchangeAlreadyExists ...
	ErrExchangeAlreadyExists = errors.New("exchange already exists")
)
