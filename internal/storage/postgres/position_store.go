package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Upsert writes the position snapshot, replacing any previous one.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (
			position_id, user_id, token_mint, amount_sol, entry_price,
			current_price, take_profit_price, stop_loss_price, status,
			opened_at, closed_at, pnl, trailing_armed, high_water_mark_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (position_id) DO UPDATE SET
			current_price = EXCLUDED.current_price,
			status = EXCLUDED.status,
			closed_at = EXCLUDED.closed_at,
			pnl = EXCLUDED.pnl,
			trailing_armed = EXCLUDED.trailing_armed,
			high_water_mark_price = EXCLUDED.high_water_mark_price
	`

	var closedAt *time.Time
	if !p.ClosedAt.IsZero() {
		closedAt = &p.ClosedAt
	}

	_, err := s.pool.Exec(ctx, query,
		p.ID,
		p.User,
		p.TokenMint,
		int64(p.AmountSol),
		int64(p.EntryPrice),
		int64(p.CurrentPrice),
		int64(p.TakeProfitPrice),
		int64(p.StopLossPrice),
		int16(p.Status),
		p.OpenedAt,
		closedAt,
		p.Pnl,
		p.TrailingArmed,
		int64(p.HighWaterMarkPrice),
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := positionSelect + ` WHERE position_id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// ListOpen retrieves all open positions, ordered by opened_at ASC.
func (s *PositionStore) ListOpen(ctx context.Context) ([]*domain.Position, error) {
	query := positionSelect + ` WHERE status = 0 ORDER BY opened_at ASC, position_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// ListByUser retrieves all positions for a user, ordered by opened_at ASC.
func (s *PositionStore) ListByUser(ctx context.Context, user string) ([]*domain.Position, error) {
	query := positionSelect + ` WHERE user_id = $1 ORDER BY opened_at ASC, position_id ASC`

	rows, err := s.pool.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("list positions by user: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

const positionSelect = `
	SELECT position_id, user_id, token_mint, amount_sol, entry_price,
	       current_price, take_profit_price, stop_loss_price, status,
	       opened_at, closed_at, pnl, trailing_armed, high_water_mark_price
	FROM positions`

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var amountSol, entryPrice, currentPrice, takeProfit, stopLoss, highWaterMark int64
	var status int16
	var closedAt *time.Time

	err := row.Scan(
		&p.ID,
		&p.User,
		&p.TokenMint,
		&amountSol,
		&entryPrice,
		&currentPrice,
		&takeProfit,
		&stopLoss,
		&status,
		&p.OpenedAt,
		&closedAt,
		&p.Pnl,
		&p.TrailingArmed,
		&highWaterMark,
	)
	if err != nil {
		return nil, err
	}

	p.AmountSol = uint64(amountSol)
	p.EntryPrice = uint64(entryPrice)
	p.CurrentPrice = uint64(currentPrice)
	p.TakeProfitPrice = uint64(takeProfit)
	p.StopLossPrice = uint64(stopLoss)
	p.HighWaterMarkPrice = uint64(highWaterMark)
	p.Status = domain.PositionStatus(status)
	if closedAt != nil {
		p.ClosedAt = *closedAt
	}
	return &p, nil
}

func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var result []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
