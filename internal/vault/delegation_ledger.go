package vault

import (
	"sync"
	"time"

	"curverider/internal/domain"
)

const (
	maxConcurrentTradesCeiling = 10
)

// delegationEntry guards one delegation record. The entry mutex serializes
// every operation that touches the delegation's counters, including position
// opens and closes driven by the position ledger.
type delegationEntry struct {
	mu sync.Mutex
	d  domain.Delegation
}

// DelegationLedger owns delegation records, keyed by user identity. It is the
// root authority store the position ledger consults and mutates.
type DelegationLedger struct {
	mu      sync.RWMutex
	entries map[string]*delegationEntry

	now func() time.Time
}

// NewDelegationLedger creates an empty delegation ledger.
func NewDelegationLedger() *DelegationLedger {
	return &DelegationLedger{
		entries: make(map[string]*delegationEntry),
		now:     time.Now,
	}
}

// CreateDelegation registers a delegation for user with the given bot
// authority, strategy and limits. Returns the created record snapshot.
func (l *DelegationLedger) CreateDelegation(
	user, botAuthority string,
	strategy domain.StrategyType,
	maxPositionSizeSol uint64,
	maxConcurrentTrades uint8,
) (domain.Delegation, error) {
	if !strategy.Valid() {
		return domain.Delegation{}, ErrInvalidStrategy
	}
	if maxPositionSizeSol == 0 {
		return domain.Delegation{}, ErrInvalidAmount
	}
	if maxConcurrentTrades == 0 || maxConcurrentTrades > maxConcurrentTradesCeiling {
		return domain.Delegation{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[user]; exists {
		return domain.Delegation{}, ErrDelegationExists
	}

	d := domain.Delegation{
		User:                user,
		BotAuthority:        botAuthority,
		Strategy:            strategy,
		MaxPositionSizeSol:  maxPositionSizeSol,
		MaxConcurrentTrades: maxConcurrentTrades,
		IsActive:            true,
		CreatedAt:           l.now(),
	}
	l.entries[user] = &delegationEntry{d: d}
	return d, nil
}

// UpdateDelegation applies the per-field-optional settings change. Only the
// owning user may update. Provided fields are validated with the creation
// rules; nil fields are left unchanged. Counters are never touched.
func (l *DelegationLedger) UpdateDelegation(user, caller string, upd domain.DelegationUpdate) (domain.Delegation, error) {
	e, err := l.entry(user)
	if err != nil {
		return domain.Delegation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.d.User {
		return domain.Delegation{}, ErrUnauthorized
	}
	// Validate everything before mutating anything.
	if upd.Strategy != nil && !upd.Strategy.Valid() {
		return domain.Delegation{}, ErrInvalidStrategy
	}
	if upd.MaxPositionSizeSol != nil && *upd.MaxPositionSizeSol == 0 {
		return domain.Delegation{}, ErrInvalidAmount
	}
	if upd.MaxConcurrentTrades != nil &&
		(*upd.MaxConcurrentTrades == 0 || *upd.MaxConcurrentTrades > maxConcurrentTradesCeiling) {
		return domain.Delegation{}, ErrInvalidAmount
	}

	if upd.Strategy != nil {
		e.d.Strategy = *upd.Strategy
	}
	if upd.MaxPositionSizeSol != nil {
		e.d.MaxPositionSizeSol = *upd.MaxPositionSizeSol
	}
	if upd.MaxConcurrentTrades != nil {
		e.d.MaxConcurrentTrades = *upd.MaxConcurrentTrades
	}
	if upd.IsActive != nil {
		e.d.IsActive = *upd.IsActive
	}
	return e.d, nil
}

// RevokeDelegation deactivates the delegation. Open positions are not
// force-closed; they remain closable by the bot authority.
func (l *DelegationLedger) RevokeDelegation(user, caller string) (domain.Delegation, error) {
	e, err := l.entry(user)
	if err != nil {
		return domain.Delegation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.d.User {
		return domain.Delegation{}, ErrUnauthorized
	}
	e.d.IsActive = false
	return e.d, nil
}

// GetStats returns a read-only snapshot of the delegation. Callable by anyone
// holding the user key.
func (l *DelegationLedger) GetStats(user string) (domain.Delegation, error) {
	e, err := l.entry(user)
	if err != nil {
		return domain.Delegation{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.d, nil
}

// Restore loads a persisted delegation snapshot, replacing any in-memory
// record for the same user. Used at startup to rehydrate from the store.
func (l *DelegationLedger) Restore(d domain.Delegation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[d.User] = &delegationEntry{d: d}
}

// List returns snapshots of every delegation, in no particular order.
func (l *DelegationLedger) List() []domain.Delegation {
	l.mu.RLock()
	entries := make([]*delegationEntry, 0, len(l.entries))
	for _, e := range l.entries {
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	out := make([]domain.Delegation, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.d)
		e.mu.Unlock()
	}
	return out
}

// entry looks up the delegation entry for a user.
func (l *DelegationLedger) entry(user string) (*delegationEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.entries[user]
	if !ok {
		return nil, ErrDelegationNotFound
	}
	return e, nil
}
