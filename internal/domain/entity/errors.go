package entity

import "errors"

var (
	// ErrNotFound is returned by repositories when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrNotOwner is returned when a user acts on an alert or track owned by someone else
	ErrNotOwner = errors.New("record belongs to another user")

	// ErrProviderUnavailable marks transient failures of the flight data provider
	ErrProviderUnavailable = errors.New("flight data provider unavailable")

	// ErrInvalidInput marks malformed user or provider input
	ErrInvalidInput = errors.New("invalid input")

	// ErrLimitReached is returned when a free-tier user exceeds the watch quota
	ErrLimitReached = errors.New("subscription limit reached")
)
