package domain

import "errors"

var (
	// ErrEventNotFound means the referenced event has no record. Callers
	// should treat this as a data-integrity fault, not a retryable condition.
	ErrEventNotFound = errors.New("event not found")

	// ErrEarningsNotFound means no ledger entry exists for the event yet.
	ErrEarningsNotFound = errors.New("earnings record not found")

	// ErrInsufficientFunds is a recoverable business violation: a withdrawal
	// asked for more than the available balance.
	ErrInsufficientFunds = errors.New("insufficient available balance")

	// ErrNotSettled is a recoverable business violation: a withdrawal was
	// requested before the settlement hold elapsed.
	ErrNotSettled = errors.New("funds are not yet settled")
)
