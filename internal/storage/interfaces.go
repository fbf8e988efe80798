// Package storage defines the persistence collaborator interfaces for the
// vault core. The ledgers are the source of truth in memory; stores hold
// durable snapshots of their records plus an append-only closed-trade
// history.
package storage

import (
	"context"

	"curverider/internal/domain"
)

// DelegationStore persists delegation snapshots, keyed by user.
type DelegationStore interface {
	// Upsert writes the delegation snapshot, replacing any previous one.
	Upsert(ctx context.Context, d *domain.Delegation) error

	// GetByUser retrieves a delegation. Returns ErrNotFound if not exists.
	GetByUser(ctx context.Context, user string) (*domain.Delegation, error)

	// List retrieves all delegations, ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.Delegation, error)
}

// PositionStore persists position snapshots, keyed by position ID.
type PositionStore interface {
	// Upsert writes the position snapshot, replacing any previous one.
	Upsert(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Position, error)

	// ListOpen retrieves all open positions, ordered by opened_at ASC.
	ListOpen(ctx context.Context) ([]*domain.Position, error)

	// ListByUser retrieves all positions for a user, ordered by opened_at ASC.
	ListByUser(ctx context.Context, user string) ([]*domain.Position, error)
}

// TradeHistoryRecord is one closed trade, written once when a position
// closes. Append-only; used for reporting and analytics.
type TradeHistoryRecord struct {
	PositionID string
	User       string
	TokenMint  string
	Strategy   domain.StrategyType
	AmountSol  uint64
	EntryPrice uint64
	ExitPrice  uint64
	Pnl        int64
	ExitReason string
	OpenedAtMs int64
	ClosedAtMs int64
}

// TradeHistoryStore persists closed-trade records.
type TradeHistoryStore interface {
	// Insert appends a closed trade. Returns ErrDuplicateKey if the
	// position ID was already recorded.
	Insert(ctx context.Context, r *TradeHistoryRecord) error

	// GetByUser retrieves all closed trades for a user, ordered by
	// closed_at ASC.
	GetByUser(ctx context.Context, user string) ([]*TradeHistoryRecord, error)
}
