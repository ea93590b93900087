package engine

import "errors"

var (
	// ErrValidation bad provider, currency or amount in a request.
	ErrValidation = errors.New("validation error")

	// ErrNotFound unknown invoice, payment or provider reference.
	ErrNotFound = errors.New("not found")

	// ErrAuthentication webhook signature did not verify.
	ErrAuthentication = errors.New("authentication error")

	// ErrProvider upstream gateway failure or timeout.
	ErrProvider = errors.New("provider error")

	// ErrConflict duplicate pending session or re-transition from a terminal status.
	ErrConflict = errors.New("conflict")
)
