package types

import "errors"

var (
	// ErrStorage wraps every failure raised by the local record store.
	ErrStorage = errors.New("storage error")
	// ErrInvalidArgument is returned for malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
)
