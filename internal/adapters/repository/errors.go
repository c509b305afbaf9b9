package repository

import "errors"

// Sentinel kinds for history errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidLimit = errors.New("invalid history limit")
	ErrInvalidID    = errors.New("invalid record id")
	ErrDuplicateID  = errors.New("record id already stored")
)
