// Package bot drives the trading loop: score watched tokens, open positions
// through the vault ledgers, evaluate exits and close.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"curverider/internal/domain"
	"curverider/internal/exitpolicy"
	"curverider/internal/marketdata"
	"curverider/internal/observability"
	"curverider/internal/signal"
	"curverider/internal/storage"
	"curverider/internal/vault"
)

const lamportsPerSol = 1_000_000_000

// Options for creating a Runner.
type Options struct {
	// Required collaborators
	Delegations *vault.DelegationLedger
	Positions   *vault.PositionLedger
	Market      marketdata.Provider

	// Stores; DelegationStore and PositionStore are required,
	// TradeHistoryStore may be nil.
	DelegationStore   storage.DelegationStore
	PositionStore     storage.PositionStore
	TradeHistoryStore storage.TradeHistoryStore

	// BotAuthority identifies this bot. Only delegations naming it are
	// acted on.
	BotAuthority string

	// WatchMints is the token universe the bot scores for entries.
	WatchMints []string

	// Interval between trading cycles.
	Interval time.Duration

	Verbose bool
}

// Runner executes trading cycles against the vault ledgers.
type Runner struct {
	delegations *vault.DelegationLedger
	positions   *vault.PositionLedger
	market      marketdata.Provider

	delegationStore storage.DelegationStore
	positionStore   storage.PositionStore
	historyStore    storage.TradeHistoryStore

	botAuthority string
	watchMints   []string
	interval     time.Duration
	verbose      bool

	// graduatedAt records when a mint was first seen graduated, keyed by
	// mint. The graduation exit grace period counts from this moment.
	graduatedAt map[string]time.Time
}

// New creates a new Runner.
func New(opts Options) (*Runner, error) {
	if opts.Delegations == nil || opts.Positions == nil || opts.Market == nil {
		return nil, fmt.Errorf("delegations, positions and market are required")
	}
	if opts.DelegationStore == nil || opts.PositionStore == nil {
		return nil, fmt.Errorf("delegation and position stores are required")
	}
	if opts.BotAuthority == "" {
		return nil, fmt.Errorf("bot authority is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Runner{
		delegations:     opts.Delegations,
		positions:       opts.Positions,
		market:          opts.Market,
		delegationStore: opts.DelegationStore,
		positionStore:   opts.PositionStore,
		historyStore:    opts.TradeHistoryStore,
		botAuthority:    opts.BotAuthority,
		watchMints:      opts.WatchMints,
		interval:        interval,
		verbose:         opts.Verbose,
	}, nil
}

// Run executes trading cycles until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log("runner started, interval=%s, watching %d mints", r.interval, len(r.watchMints))

	for {
		select {
		case <-ctx.Done():
			r.log("runner stopped: %v", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := r.Cycle(ctx); err != nil {
				log.Printf("[bot] cycle failed: %v", err)
				continue
			}
			observability.DefaultMetrics.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
		}
	}
}

// Cycle runs one trading pass: evaluate exits on every open position, then
// score the watch list for new entries. Per-delegation failures are logged
// and do not abort the pass.
func (r *Runner) Cycle(ctx context.Context) error {
	if r.graduatedAt == nil {
		r.graduatedAt = make(map[string]time.Time)
	}

	now := time.Now()
	active := 0
	for _, d := range r.delegations.List() {
		if d.BotAuthority != r.botAuthority {
			continue
		}
		if d.IsActive {
			active++
		}

		strat, err := signal.ForStrategy(d.Strategy)
		if err != nil {
			log.Printf("[bot] user=%s: %v", d.User, err)
			continue
		}

		r.evaluateExits(ctx, d, strat.ExitParams(), now)

		if d.IsActive {
			r.evaluateEntries(ctx, d, now)
		}
	}
	observability.DefaultMetrics.ActiveDelegations.Set(float64(active))
	return nil
}

// evaluateExits ticks the exit policy over the user's open positions.
func (r *Runner) evaluateExits(ctx context.Context, d domain.Delegation, params domain.ExitParams, now time.Time) {
	for _, pos := range r.positions.OpenPositions(d.User) {
		m, err := r.market.Metrics(ctx, pos.TokenMint)
		if err != nil {
			r.log("no market data for %s: %v", pos.TokenMint, err)
			continue
		}

		currentPrice := priceLamports(m.CurrentPrice)
		if currentPrice == 0 {
			continue
		}

		if m.IsGraduated {
			if _, seen := r.graduatedAt[pos.TokenMint]; !seen {
				r.graduatedAt[pos.TokenMint] = now
			}
		}

		observability.RecordExitEvaluation()
		decision := exitpolicy.Evaluate(&pos, params, currentPrice, now, r.graduatedAt[pos.TokenMint])

		if !decision.Close {
			// Persist trailing-stop tracking advanced by the evaluation.
			if err := r.positions.UpdateTrailingState(pos.ID, r.botAuthority, pos.TrailingArmed, pos.HighWaterMarkPrice); err != nil {
				log.Printf("[bot] update trailing state %s: %v", pos.ID, err)
			}
			continue
		}

		received := estimateProceeds(pos.AmountSol, pos.EntryPrice, currentPrice)
		closed, err := r.positions.ClosePosition(pos.ID, r.botAuthority, currentPrice, received)
		if err != nil {
			if errors.Is(err, vault.ErrAlreadyClosed) {
				continue
			}
			log.Printf("[bot] close position %s: %v", pos.ID, err)
			continue
		}

		r.log("closed %s mint=%s reason=%s pnl=%d", closed.ID, closed.TokenMint, decision.Reason, closed.Pnl)
		observability.RecordPositionClosed(decision.Reason)
		observability.RecordExitTriggered(decision.Reason)

		r.persistClose(ctx, d, closed, decision.Reason)
	}
}

// evaluateEntries scores the watch list and opens positions on buy signals.
func (r *Runner) evaluateEntries(ctx context.Context, d domain.Delegation, now time.Time) {
	held := make(map[string]bool)
	open := r.positions.OpenPositions(d.User)
	for _, p := range open {
		held[p.TokenMint] = true
	}
	if len(open) >= int(d.MaxConcurrentTrades) {
		return
	}

	for _, mint := range r.watchMints {
		if held[mint] {
			continue
		}

		m, err := r.market.Metrics(ctx, mint)
		if err != nil {
			continue
		}

		sig, err := signal.Score(*m, d.Strategy)
		if err != nil {
			log.Printf("[bot] score %s: %v", mint, err)
			continue
		}
		observability.RecordSignal(d.Strategy.String(), string(sig.Kind), sig.Confidence)

		if !sig.Kind.IsBuy() {
			continue
		}

		entryPrice := priceLamports(m.CurrentPrice)
		if entryPrice == 0 {
			continue
		}

		pos, err := r.positions.OpenPosition(
			d.User, r.botAuthority, mint,
			d.MaxPositionSizeSol, entryPrice,
			sig.ExitParams.TakeProfitPrice(entryPrice),
			sig.ExitParams.StopLossPrice(entryPrice),
		)
		if err != nil {
			if errors.Is(err, vault.ErrMaxTradesReached) {
				return
			}
			log.Printf("[bot] open position user=%s mint=%s: %v", d.User, mint, err)
			continue
		}

		r.log("opened %s user=%s mint=%s signal=%s confidence=%.2f",
			pos.ID, d.User, mint, sig.Kind, sig.Confidence)
		observability.RecordPositionOpened(d.Strategy.String())

		r.persistOpen(ctx, d.User, pos)
	}
}

// persistOpen snapshots the new position and its delegation to the stores.
func (r *Runner) persistOpen(ctx context.Context, user string, pos domain.Position) {
	if err := r.positionStore.Upsert(ctx, &pos); err != nil {
		log.Printf("[bot] persist position %s: %v", pos.ID, err)
	}
	r.persistDelegation(ctx, user)
}

// persistClose snapshots the closed position, its delegation and the trade
// history record.
func (r *Runner) persistClose(ctx context.Context, d domain.Delegation, pos domain.Position, exitReason string) {
	if err := r.positionStore.Upsert(ctx, &pos); err != nil {
		log.Printf("[bot] persist position %s: %v", pos.ID, err)
	}
	r.persistDelegation(ctx, d.User)

	if r.historyStore == nil {
		return
	}
	rec := &storage.TradeHistoryRecord{
		PositionID: pos.ID,
		User:       pos.User,
		TokenMint:  pos.TokenMint,
		Strategy:   d.Strategy,
		AmountSol:  pos.AmountSol,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  pos.CurrentPrice,
		Pnl:        pos.Pnl,
		ExitReason: exitReason,
		OpenedAtMs: pos.OpenedAt.UnixMilli(),
		ClosedAtMs: pos.ClosedAt.UnixMilli(),
	}
	if err := r.historyStore.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		log.Printf("[bot] persist trade history %s: %v", pos.ID, err)
	}
}

func (r *Runner) persistDelegation(ctx context.Context, user string) {
	d, err := r.delegations.GetStats(user)
	if err != nil {
		return
	}
	if err := r.delegationStore.Upsert(ctx, &d); err != nil {
		log.Printf("[bot] persist delegation %s: %v", user, err)
	}
	observability.DefaultMetrics.RealizedPnl.Set(float64(d.TotalPnl))
}

func (r *Runner) log(format string, args ...interface{}) {
	if r.verbose {
		log.Printf("[bot] "+format, args...)
	}
}

// priceLamports converts a SOL-denominated price to lamports.
func priceLamports(priceSol float64) uint64 {
	if priceSol <= 0 {
		return 0
	}
	return uint64(priceSol * lamportsPerSol)
}

// estimateProceeds values the position at exit: the entry amount scaled by
// the price move. Settlement happens off the ledger; this is the mark used
// for PnL accounting.
func estimateProceeds(amountSol, entryPrice, exitPrice uint64) uint64 {
	if entryPrice == 0 {
		return amountSol
	}
	return uint64(float64(amountSol) * float64(exitPrice) / float64(entryPrice))
}
