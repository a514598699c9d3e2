package domain

import "errors"

var (
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidEvent       = errors.New("invalid confirmation event")
	ErrAlreadyTerminal    = errors.New("transaction already in a terminal status")
	ErrStorageConflict    = errors.New("conditional update lost")
	ErrCouponExhausted    = errors.New("coupon usage limit reached")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrLockNotAcquired    = errors.New("lock not acquired")
)
