package storage

import "errors"

var (
	ErrNotFound     = errors.New("item not found in storage")
	ErrCodeNotFound = errors.New("join code not found in storage")
	ErrConflict     = errors.New("conditional write failed")
)
