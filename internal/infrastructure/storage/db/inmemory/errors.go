package inmemory

import "errors"

var (
	// ErrExchangeAlreadyExists ...
	ErrExchangeAlreadyExists = errors.New("exchange already exists")
)
