package boltstore

import "errors"

var (
	// ErrBucketNotFound is returned when accessing a bucket that was not
	// declared when opening the store.
	ErrBucketNotFound = errors.New("bucket not found")
	// ErrMissingKey ...
	ErrMissingKey = errors.New("missing data key")
	// ErrMissingData ...
	ErrMissingData = errors.New("missing data to add")
)
