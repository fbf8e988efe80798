package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

// DelegationStore implements storage.DelegationStore using PostgreSQL.
type DelegationStore struct {
	pool *Pool
}

// NewDelegationStore creates a new DelegationStore.
func NewDelegationStore(pool *Pool) *DelegationStore {
	return &DelegationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DelegationStore = (*DelegationStore)(nil)

// Upsert writes the delegation snapshot, replacing any previous one.
func (s *DelegationStore) Upsert(ctx context.Context, d *domain.Delegation) error {
	if d == nil || d.User == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO delegations (
			user_id, bot_authority, strategy, max_position_size_sol,
			max_concurrent_trades, is_active, active_trades, total_trades,
			profitable_trades, total_pnl, created_at, last_trade_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			bot_authority = EXCLUDED.bot_authority,
			strategy = EXCLUDED.strategy,
			max_position_size_sol = EXCLUDED.max_position_size_sol,
			max_concurrent_trades = EXCLUDED.max_concurrent_trades,
			is_active = EXCLUDED.is_active,
			active_trades = EXCLUDED.active_trades,
			total_trades = EXCLUDED.total_trades,
			profitable_trades = EXCLUDED.profitable_trades,
			total_pnl = EXCLUDED.total_pnl,
			last_trade_at = EXCLUDED.last_trade_at
	`

	var lastTradeAt *time.Time
	if !d.LastTradeAt.IsZero() {
		lastTradeAt = &d.LastTradeAt
	}

	_, err := s.pool.Exec(ctx, query,
		d.User,
		d.BotAuthority,
		int16(d.Strategy),
		int64(d.MaxPositionSizeSol),
		int16(d.MaxConcurrentTrades),
		d.IsActive,
		int16(d.ActiveTrades),
		int64(d.TotalTrades),
		int64(d.ProfitableTrades),
		d.TotalPnl,
		d.CreatedAt,
		lastTradeAt,
	)
	if err != nil {
		return fmt.Errorf("upsert delegation: %w", err)
	}
	return nil
}

// GetByUser retrieves a delegation. Returns ErrNotFound if not exists.
func (s *DelegationStore) GetByUser(ctx context.Context, user string) (*domain.Delegation, error) {
	query := delegationSelect + ` WHERE user_id = $1`

	row := s.pool.QueryRow(ctx, query, user)
	d, err := scanDelegation(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get delegation by user: %w", err)
	}
	return d, nil
}

// List retrieves all delegations, ordered by created_at ASC.
func (s *DelegationStore) List(ctx context.Context) ([]*domain.Delegation, error) {
	query := delegationSelect + ` ORDER BY created_at ASC, user_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list delegations: %w", err)
	}
	defer rows.Close()

	var result []*domain.Delegation
	for rows.Next() {
		d, err := scanDelegation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan delegation: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

const delegationSelect = `
	SELECT user_id, bot_authority, strategy, max_position_size_sol,
	       max_concurrent_trades, is_active, active_trades, total_trades,
	       profitable_trades, total_pnl, created_at, last_trade_at
	FROM delegations`

// scanDelegation scans a single row into a Delegation.
func scanDelegation(row pgx.Row) (*domain.Delegation, error) {
	var d domain.Delegation
	var strategy, maxConcurrent, activeTrades int16
	var maxPositionSize, totalTrades, profitableTrades int64
	var lastTradeAt *time.Time

	err := row.Scan(
		&d.User,
		&d.BotAuthority,
		&strategy,
		&maxPositionSize,
		&maxConcurrent,
		&d.IsActive,
		&activeTrades,
		&totalTrades,
		&profitableTrades,
		&d.TotalPnl,
		&d.CreatedAt,
		&lastTradeAt,
	)
	if err != nil {
		return nil, err
	}

	d.Strategy = domain.StrategyType(strategy)
	d.MaxPositionSizeSol = uint64(maxPositionSize)
	d.MaxConcurrentTrades = uint8(maxConcurrent)
	d.ActiveTrades = uint8(activeTrades)
	d.TotalTrades = uint64(totalTrades)
	d.ProfitableTrades = uint64(profitableTrades)
	if lastTradeAt != nil {
		d.LastTradeAt = *lastTradeAt
	}
	return &d, nil
}
