package domain

import "time"

// Delegation grants a bot authority bounded, revocable permission to trade on
// a user's behalf. One delegation exists per user; revocation flips IsActive
// instead of deleting the record.
type Delegation struct {
	User         string // owner identity (base58 pubkey)
	BotAuthority string // identity authorized to open/close positions

	Strategy            StrategyType
	MaxPositionSizeSol  uint64 // lamports, per position
	MaxConcurrentTrades uint8  // 1..10
	IsActive            bool

	// Running stats, mutated only by the position ledger.
	ActiveTrades     uint8
	TotalTrades      uint64
	ProfitableTrades uint64
	TotalPnl         int64 // lamports, signed

	CreatedAt   time.Time
	LastTradeAt time.Time // zero until the first open
}

// DelegationUpdate carries the per-field-optional settings change for
// UpdateDelegation. Nil means leave unchanged.
type DelegationUpdate struct {
	Strategy            *StrategyType
	MaxPositionSizeSol  *uint64
	MaxConcurrentTrades *uint8
	IsActive            *bool
}
