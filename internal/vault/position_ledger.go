package vault

import (
	"time"

	"curverider/internal/domain"
	"curverider/internal/idhash"
)

// PositionLedger owns position records and drives the counters on the owning
// delegation. Opens and closes against one delegation serialize on that
// delegation's entry lock, so counters and position state always change as a
// single atomic unit.
type PositionLedger struct {
	delegations *DelegationLedger

	// positions is guarded by the delegation ledger map lock for membership;
	// individual records are guarded by the owning delegation's entry lock.
	positions map[string]*domain.Position

	now func() time.Time
}

// NewPositionLedger creates a position ledger backed by the given delegation
// ledger.
func NewPositionLedger(delegations *DelegationLedger) *PositionLedger {
	return &PositionLedger{
		delegations: delegations,
		positions:   make(map[string]*domain.Position),
		now:         time.Now,
	}
}

// OpenPosition validates the caller against the delegation and, if every
// limit check passes, creates an open position and bumps the delegation
// counters. Nothing is mutated on any validation failure.
func (l *PositionLedger) OpenPosition(
	user, caller, tokenMint string,
	amountSol, entryPrice, takeProfitPrice, stopLossPrice uint64,
) (domain.Position, error) {
	e, err := l.delegations.entry(user)
	if err != nil {
		return domain.Position{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.d.BotAuthority {
		return domain.Position{}, ErrUnauthorized
	}
	if !e.d.IsActive {
		return domain.Position{}, ErrDelegationInactive
	}
	if amountSol > e.d.MaxPositionSizeSol {
		return domain.Position{}, ErrPositionTooLarge
	}
	if e.d.ActiveTrades >= e.d.MaxConcurrentTrades {
		return domain.Position{}, ErrMaxTradesReached
	}

	activeTrades, err := checkedAddU8(e.d.ActiveTrades, 1)
	if err != nil {
		return domain.Position{}, err
	}
	totalTrades, err := checkedAddU64(e.d.TotalTrades, 1)
	if err != nil {
		return domain.Position{}, err
	}

	openedAt := l.now()
	p := &domain.Position{
		ID:              idhash.ComputePositionID(user, tokenMint, openedAt.UnixMilli(), totalTrades),
		User:            user,
		TokenMint:       tokenMint,
		AmountSol:       amountSol,
		EntryPrice:      entryPrice,
		CurrentPrice:    entryPrice,
		TakeProfitPrice: takeProfitPrice,
		StopLossPrice:   stopLossPrice,
		Status:          domain.PositionOpen,
		OpenedAt:        openedAt,
	}

	l.delegations.mu.Lock()
	l.positions[p.ID] = p
	l.delegations.mu.Unlock()

	e.d.ActiveTrades = activeTrades
	e.d.TotalTrades = totalTrades
	e.d.LastTradeAt = openedAt

	return *p, nil
}

// ClosePosition closes an open position at exitPrice, records the realized
// PnL (amountReceived - amountSol) and updates the delegation counters. The
// transition is terminal; closing twice fails ErrAlreadyClosed.
func (l *PositionLedger) ClosePosition(
	positionID, caller string,
	exitPrice, amountReceived uint64,
) (domain.Position, error) {
	p, e, err := l.lookup(positionID)
	if err != nil {
		return domain.Position{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.d.BotAuthority {
		return domain.Position{}, ErrUnauthorized
	}
	if p.Status != domain.PositionOpen {
		return domain.Position{}, ErrAlreadyClosed
	}

	pnl, err := pnlLamports(amountReceived, p.AmountSol)
	if err != nil {
		return domain.Position{}, err
	}
	activeTrades, err := checkedSubU8(e.d.ActiveTrades, 1)
	if err != nil {
		return domain.Position{}, err
	}
	totalPnl, err := checkedAddI64(e.d.TotalPnl, pnl)
	if err != nil {
		return domain.Position{}, err
	}
	profitableTrades := e.d.ProfitableTrades
	if pnl > 0 {
		if profitableTrades, err = checkedAddU64(profitableTrades, 1); err != nil {
			return domain.Position{}, err
		}
	}

	p.CurrentPrice = exitPrice
	p.Status = domain.PositionClosed
	p.ClosedAt = l.now()
	p.Pnl = pnl

	e.d.ActiveTrades = activeTrades
	e.d.TotalPnl = totalPnl
	e.d.ProfitableTrades = profitableTrades

	return *p, nil
}

// UpdateTrailingState records the exit policy engine's trailing-stop tracking
// (armed flag and high-water mark) on an open position. A position that
// closed in the meantime is left untouched; trailing tracking is advisory and
// re-applying it is never an error.
func (l *PositionLedger) UpdateTrailingState(positionID, caller string, armed bool, highWaterMark uint64) error {
	p, e, err := l.lookup(positionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.d.BotAuthority {
		return ErrUnauthorized
	}
	if p.Status != domain.PositionOpen {
		return nil
	}
	p.TrailingArmed = armed
	p.HighWaterMarkPrice = highWaterMark
	return nil
}

// Restore loads a persisted position snapshot, replacing any in-memory
// record with the same ID. The owning delegation must already be present.
func (l *PositionLedger) Restore(p domain.Position) error {
	if _, err := l.delegations.entry(p.User); err != nil {
		return err
	}

	l.delegations.mu.Lock()
	defer l.delegations.mu.Unlock()
	record := p
	l.positions[p.ID] = &record
	return nil
}

// GetPosition returns a snapshot of the position.
func (l *PositionLedger) GetPosition(positionID string) (domain.Position, error) {
	p, e, err := l.lookup(positionID)
	if err != nil {
		return domain.Position{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return *p, nil
}

// OpenPositions returns snapshots of the user's open positions.
func (l *PositionLedger) OpenPositions(user string) []domain.Position {
	e, err := l.delegations.entry(user)
	if err != nil {
		return nil
	}

	l.delegations.mu.RLock()
	var records []*domain.Position
	for _, p := range l.positions {
		if p.User == user {
			records = append(records, p)
		}
	}
	l.delegations.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	var result []domain.Position
	for _, p := range records {
		if p.Status == domain.PositionOpen {
			result = append(result, *p)
		}
	}
	return result
}

// lookup resolves a position and its owning delegation entry.
func (l *PositionLedger) lookup(positionID string) (*domain.Position, *delegationEntry, error) {
	l.delegations.mu.RLock()
	p, ok := l.positions[positionID]
	l.delegations.mu.RUnlock()
	if !ok {
		return nil, nil, ErrPositionNotFound
	}

	e, err := l.delegations.entry(p.User)
	if err != nil {
		return nil, nil, err
	}
	return p, e, nil
}
