package models

import "errors"

var (
	// ErrInvalidAmount means the requested amount was zero, negative or malformed.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrUnsupportedCurrency means the currency code is not in the supported registry.
	ErrUnsupportedCurrency = errors.New("unsupported currency code")

	// ErrInsufficientFunds means the balance does not cover the trade; no mutation happened.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRateUnavailable means the upstream rate source was unreachable, returned
	// a non-2xx status, or does not know the code. Retryable by the caller;
	// no mutation happened.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrPersistence means a store write failed mid-trade. The trade is
	// considered not completed and the caller should retry the whole operation.
	ErrPersistence = errors.New("persistence failure")
)
