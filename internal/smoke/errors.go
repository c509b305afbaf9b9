package smoke

import "errors"

// Sentinel kinds for smoke check errors.
var (
	ErrCheckFailed = errors.New("smoke check failed")
	ErrStatus      = errors.New("unexpected status")
	ErrPayload     = errors.New("unexpected payload")
)
