package domain

import "errors"

// Business-rule failures. These are expected conditions surfaced to the
// caller as typed errors; none of them should crash a request.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountNotActive    = errors.New("account is not active")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrDuplicateReference  = errors.New("transaction reference already exists")
	ErrDuplicatePosting    = errors.New("accrual already posted for this period")
	ErrSameAccountTransfer = errors.New("source and destination account are the same")
	ErrVersionConflict     = errors.New("account modified concurrently, retry")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyReversed     = errors.New("transaction already reversed")
)
