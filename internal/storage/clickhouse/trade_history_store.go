package clickhouse

import (
	"context"
	"fmt"

	"curverider/internal/domain"
	"curverider/internal/storage"
)

// TradeHistoryStore implements storage.TradeHistoryStore using ClickHouse.
type TradeHistoryStore struct {
	conn *Conn
}

// NewTradeHistoryStore creates a new TradeHistoryStore.
func NewTradeHistoryStore(conn *Conn) *TradeHistoryStore {
	return &TradeHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeHistoryStore = (*TradeHistoryStore)(nil)

// Insert appends a closed trade. MergeTree does not enforce uniqueness at
// insert time, so an explicit existence check provides the append-only
// semantics.
func (s *TradeHistoryStore) Insert(ctx context.Context, r *storage.TradeHistoryRecord) error {
	if r == nil || r.PositionID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, r.PositionID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO trade_history (
			position_id, user_id, token_mint, strategy,
			amount_sol, entry_price, exit_price, pnl, exit_reason,
			opened_at_ms, closed_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		r.PositionID, r.User, r.TokenMint, uint8(r.Strategy),
		r.AmountSol, r.EntryPrice, r.ExitPrice, r.Pnl, r.ExitReason,
		r.OpenedAtMs, r.ClosedAtMs,
	)
	if err != nil {
		return fmt.Errorf("insert trade history: %w", err)
	}
	return nil
}

// GetByUser retrieves all closed trades for a user, ordered by closed_at ASC.
func (s *TradeHistoryStore) GetByUser(ctx context.Context, user string) ([]*storage.TradeHistoryRecord, error) {
	query := `
		SELECT position_id, user_id, token_mint, strategy,
		       amount_sol, entry_price, exit_price, pnl, exit_reason,
		       opened_at_ms, closed_at_ms
		FROM trade_history
		WHERE user_id = ?
		ORDER BY closed_at_ms ASC, position_id ASC
	`

	rows, err := s.conn.Query(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("get trade history by user: %w", err)
	}
	defer rows.Close()

	var result []*storage.TradeHistoryRecord
	for rows.Next() {
		var r storage.TradeHistoryRecord
		var strategy uint8
		if err := rows.Scan(
			&r.PositionID, &r.User, &r.TokenMint, &strategy,
			&r.AmountSol, &r.EntryPrice, &r.ExitPrice, &r.Pnl, &r.ExitReason,
			&r.OpenedAtMs, &r.ClosedAtMs,
		); err != nil {
			return nil, fmt.Errorf("scan trade history: %w", err)
		}
		r.Strategy = domain.StrategyType(strategy)
		result = append(result, &r)
	}
	return result, rows.Err()
}

// exists checks whether a trade for the position was already recorded.
func (s *TradeHistoryStore) exists(ctx context.Context, positionID string) (bool, error) {
	query := `SELECT count() FROM trade_history WHERE position_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, positionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
