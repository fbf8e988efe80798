// Package backtest replays recorded market snapshots through the scoring
// and exit machinery to evaluate a strategy offline.
package backtest

import (
	"fmt"
	"time"

	"curverider/internal/domain"
	"curverider/internal/exitpolicy"
	"curverider/internal/signal"
	"curverider/internal/vault"
)

const lamportsPerSol = 1_000_000_000

// Snapshot is one recorded observation of a token.
type Snapshot struct {
	AtMs    int64
	Metrics domain.TokenMetrics
}

// Config selects the strategy and sizing for a replay.
type Config struct {
	User               string
	BotAuthority       string
	Strategy           domain.StrategyType
	MaxPositionSizeSol uint64
}

// Trade is one completed round trip during the replay.
type Trade struct {
	PositionID     string
	AmountSol      uint64
	EntryPrice     uint64
	ExitPrice      uint64
	Pnl            int64
	ExitReason     string
	EntryAtMs      int64
	ExitAtMs       int64
	HoldDurationMs int64
}

// Results holds replay output.
type Results struct {
	Strategy         domain.StrategyType
	Mint             string
	EventCount       int
	BuySignals       int
	Trades           []Trade
	TotalPnl         int64
	ProfitableTrades int

	// OpenAtEnd reports that the replay ended with a position still open.
	// Its PnL is not included in TotalPnl.
	OpenAtEnd bool
}

// Engine feeds snapshots through the full entry/exit path: score when flat,
// open on a buy signal, tick the exit policy while holding, close on a
// decision. Positions go through the vault ledgers so sizing and counter
// rules apply exactly as in live trading.
type Engine struct {
	cfg   Config
	strat signal.Strategy

	delegations *vault.DelegationLedger
	positions   *vault.PositionLedger

	results *Results

	// Replay timestamps of the current entry and of the first graduated
	// observation. Duration-based exits are evaluated at the position's
	// wall-clock open time shifted by the recorded offset.
	entryAtMs     int64
	graduatedAtMs int64
}

// NewEngine creates a replay engine with a single delegation for the
// configured user.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.User == "" || cfg.BotAuthority == "" {
		return nil, fmt.Errorf("user and bot authority are required")
	}
	if cfg.MaxPositionSizeSol == 0 {
		cfg.MaxPositionSizeSol = lamportsPerSol / 10
	}

	strat, err := signal.ForStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	dl := vault.NewDelegationLedger()
	pl := vault.NewPositionLedger(dl)
	if _, err := dl.CreateDelegation(cfg.User, cfg.BotAuthority, cfg.Strategy, cfg.MaxPositionSizeSol, 1); err != nil {
		return nil, fmt.Errorf("create delegation: %w", err)
	}

	return &Engine{
		cfg:         cfg,
		strat:       strat,
		delegations: dl,
		positions:   pl,
		results: &Results{
			Strategy: cfg.Strategy,
			Trades:   make([]Trade, 0),
		},
	}, nil
}

// OnEvent processes one snapshot in replay order.
func (e *Engine) OnEvent(ev Snapshot) error {
	e.results.EventCount++

	m := ev.Metrics
	if e.results.Mint == "" {
		e.results.Mint = m.Mint
	}

	if m.IsGraduated && e.graduatedAtMs == 0 {
		e.graduatedAtMs = ev.AtMs
	}

	if open := e.positions.OpenPositions(e.cfg.User); len(open) > 0 {
		return e.tickExit(open[0], ev)
	}
	return e.tickEntry(ev)
}

func (e *Engine) tickEntry(ev Snapshot) error {
	m := ev.Metrics
	sig, err := signal.Score(m, e.cfg.Strategy)
	if err != nil {
		return err
	}
	if !sig.Kind.IsBuy() {
		return nil
	}
	e.results.BuySignals++

	entryPrice := priceLamports(m.CurrentPrice)
	if entryPrice == 0 {
		return nil
	}

	_, err = e.positions.OpenPosition(
		e.cfg.User, e.cfg.BotAuthority, m.Mint,
		e.cfg.MaxPositionSizeSol, entryPrice,
		sig.ExitParams.TakeProfitPrice(entryPrice),
		sig.ExitParams.StopLossPrice(entryPrice),
	)
	if err != nil {
		return fmt.Errorf("open position: %w", err)
	}
	e.entryAtMs = ev.AtMs
	return nil
}

func (e *Engine) tickExit(pos domain.Position, ev Snapshot) error {
	price := priceLamports(ev.Metrics.CurrentPrice)
	if price == 0 {
		return nil
	}

	now := pos.OpenedAt.Add(time.Duration(ev.AtMs-e.entryAtMs) * time.Millisecond)
	var graduatedAt time.Time
	if e.graduatedAtMs != 0 {
		graduatedAt = pos.OpenedAt.Add(time.Duration(e.graduatedAtMs-e.entryAtMs) * time.Millisecond)
	}

	decision := exitpolicy.Evaluate(&pos, e.strat.ExitParams(), price, now, graduatedAt)
	if !decision.Close {
		return e.positions.UpdateTrailingState(pos.ID, e.cfg.BotAuthority, pos.TrailingArmed, pos.HighWaterMarkPrice)
	}

	received := estimateProceeds(pos.AmountSol, pos.EntryPrice, price)
	closed, err := e.positions.ClosePosition(pos.ID, e.cfg.BotAuthority, price, received)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}

	e.results.Trades = append(e.results.Trades, Trade{
		PositionID:     closed.ID,
		AmountSol:      closed.AmountSol,
		EntryPrice:     closed.EntryPrice,
		ExitPrice:      closed.CurrentPrice,
		Pnl:            closed.Pnl,
		ExitReason:     decision.Reason,
		EntryAtMs:      e.entryAtMs,
		ExitAtMs:       ev.AtMs,
		HoldDurationMs: ev.AtMs - e.entryAtMs,
	})
	e.results.TotalPnl += closed.Pnl
	if closed.Pnl > 0 {
		e.results.ProfitableTrades++
	}
	return nil
}

// Results returns the replay results.
func (e *Engine) Results() *Results {
	e.results.OpenAtEnd = len(e.positions.OpenPositions(e.cfg.User)) > 0
	return e.results
}

// Run replays all snapshots in order and returns the results.
func Run(cfg Config, snapshots []Snapshot) (*Results, error) {
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	for _, ev := range snapshots {
		if err := engine.OnEvent(ev); err != nil {
			return nil, err
		}
	}
	return engine.Results(), nil
}

func priceLamports(priceSol float64) uint64 {
	if priceSol <= 0 {
		return 0
	}
	return uint64(priceSol * lamportsPerSol)
}

func estimateProceeds(amountSol, entryPrice, exitPrice uint64) uint64 {
	if entryPrice == 0 {
		return amountSol
	}
	return uint64(float64(amountSol) * float64(exitPrice) / float64(entryPrice))
}
