// Package vault implements the delegation and position ledgers: the
// authorization boundary and trade lifecycle governor. All state transitions
// are all-or-nothing; a validation failure leaves every record unchanged.
package vault

import "errors"

// Vault errors. All are terminal and non-retryable; the caller distinguishes
// them with errors.Is.
var (
	// ErrUnauthorized is returned when the caller is not the identity the
	// operation requires (delegation owner or bot authority).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidStrategy is returned for a strategy value outside 0..3.
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidAmount is returned when max position size is zero or max
	// concurrent trades is outside 1..10.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDelegationInactive is returned when opening against a revoked or
	// deactivated delegation.
	ErrDelegationInactive = errors.New("delegation is not active")

	// ErrPositionTooLarge is returned when the requested amount exceeds the
	// delegation's max position size.
	ErrPositionTooLarge = errors.New("position size exceeds maximum allowed")

	// ErrMaxTradesReached is returned when the delegation already has the
	// maximum number of concurrent open positions.
	ErrMaxTradesReached = errors.New("maximum concurrent trades reached")

	// ErrAlreadyClosed is returned when closing a position that is not open.
	ErrAlreadyClosed = errors.New("position already closed")

	// ErrMathOverflow is returned instead of wrapping counter or PnL
	// arithmetic.
	ErrMathOverflow = errors.New("math overflow")

	// ErrDelegationNotFound is returned when no delegation exists for the
	// given user.
	ErrDelegationNotFound = errors.New("delegation not found")

	// ErrPositionNotFound is returned when no position exists with the
	// given ID.
	ErrPositionNotFound = errors.New("position not found")

	// ErrDelegationExists is returned when creating a second delegation for
	// the same user.
	ErrDelegationExists = errors.New("delegation already exists")
)
