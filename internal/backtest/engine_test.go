package backtest

import (
	"strings"
	"testing"

	"curverider/internal/domain"
)

const (
	replayUser = "UserReplay111111111111111111111111111111111"
	replayBot  = "BotReplay1111111111111111111111111111111111"
	replayMint = "MintReplay111111111111111111111111111111111"
)

func replayConfig(strategy domain.StrategyType) Config {
	return Config{
		User:               replayUser,
		BotAuthority:       replayBot,
		Strategy:           strategy,
		MaxPositionSizeSol: 100_000_000,
	}
}

// bullishMetrics scores well above the conservative action floor.
func bullishMetrics(priceSol float64) domain.TokenMetrics {
	return domain.TokenMetrics{
		Mint:                 replayMint,
		Volume5m:             25,
		Volume1h:             120,
		LiquiditySol:         20,
		HolderCount:          200,
		HolderConcentration:  0.15,
		CurrentPrice:         priceSol,
		PriceChange5m:        0.15,
		PriceChange1h:        0.40,
		BuyPressure:          3,
		SellPressure:         1,
		BondingCurveProgress: 50,
		AgeSeconds:           7200,
	}
}

// quietMetrics never clears any entry gate.
func quietMetrics(priceSol float64) domain.TokenMetrics {
	m := bullishMetrics(priceSol)
	m.Volume5m = 0.1
	m.Volume1h = 1
	m.LiquiditySol = 1
	m.HolderCount = 5
	m.PriceChange5m = 0
	m.PriceChange1h = 0
	m.BuyPressure = 1
	return m
}

func TestNewEngine_Validation(t *testing.T) {
	if _, err := NewEngine(Config{BotAuthority: replayBot}); err == nil {
		t.Error("expected error for missing user")
	}
	if _, err := NewEngine(Config{User: replayUser, BotAuthority: replayBot, Strategy: 7}); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestRun_TakeProfitRoundTrip(t *testing.T) {
	// Conservative take-profit is 2x entry.
	snapshots := []Snapshot{
		{AtMs: 0, Metrics: bullishMetrics(0.000001)},
		{AtMs: 5_000, Metrics: bullishMetrics(0.0000012)},
		{AtMs: 10_000, Metrics: bullishMetrics(0.0000021)},
	}

	res, err := Run(replayConfig(domain.StrategyConservative), snapshots)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.EventCount != 3 {
		t.Errorf("expected 3 events, got %d", res.EventCount)
	}
	if res.BuySignals != 1 {
		t.Errorf("expected 1 buy signal, got %d", res.BuySignals)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}

	trade := res.Trades[0]
	if trade.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("expected %s, got %s", domain.ExitReasonTakeProfit, trade.ExitReason)
	}
	if trade.EntryPrice != 1000 {
		t.Errorf("expected entry price 1000, got %d", trade.EntryPrice)
	}
	if trade.ExitPrice != 2100 {
		t.Errorf("expected exit price 2100, got %d", trade.ExitPrice)
	}
	// 0.1 SOL in, 2.1x out: pnl = 110_000_000 lamports.
	if trade.Pnl != 110_000_000 {
		t.Errorf("expected pnl 110000000, got %d", trade.Pnl)
	}
	if trade.HoldDurationMs != 10_000 {
		t.Errorf("expected hold 10000ms, got %d", trade.HoldDurationMs)
	}
	if res.TotalPnl != 110_000_000 || res.ProfitableTrades != 1 {
		t.Errorf("expected totals 110000000/1, got %d/%d", res.TotalPnl, res.ProfitableTrades)
	}
	if res.OpenAtEnd {
		t.Error("expected no open position at end")
	}
}

func TestRun_StopLossRoundTrip(t *testing.T) {
	// Conservative stop-loss is 50% of entry.
	snapshots := []Snapshot{
		{AtMs: 0, Metrics: bullishMetrics(0.000001)},
		{AtMs: 5_000, Metrics: bullishMetrics(0.0000004)},
	}

	res, err := Run(replayConfig(domain.StrategyConservative), snapshots)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	if res.Trades[0].ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("expected %s, got %s", domain.ExitReasonStopLoss, res.Trades[0].ExitReason)
	}
	if res.Trades[0].Pnl != -60_000_000 {
		t.Errorf("expected pnl -60000000, got %d", res.Trades[0].Pnl)
	}
	if res.ProfitableTrades != 0 {
		t.Errorf("expected 0 profitable trades, got %d", res.ProfitableTrades)
	}
}

func TestRun_TimeoutFromRecordedOffsets(t *testing.T) {
	// Conservative timeout is 3600s. The price never reaches either band.
	snapshots := []Snapshot{
		{AtMs: 0, Metrics: bullishMetrics(0.000001)},
		{AtMs: 3_599_000, Metrics: bullishMetrics(0.0000011)},
		{AtMs: 3_600_000, Metrics: bullishMetrics(0.0000011)},
	}

	res, err := Run(replayConfig(domain.StrategyConservative), snapshots)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.ExitReason != domain.ExitReasonTimeout {
		t.Errorf("expected %s, got %s", domain.ExitReasonTimeout, trade.ExitReason)
	}
	if trade.ExitAtMs != 3_600_000 {
		t.Errorf("expected exit at 3600000ms, got %d", trade.ExitAtMs)
	}
}

func TestRun_NoEntryStaysFlat(t *testing.T) {
	snapshots := []Snapshot{
		{AtMs: 0, Metrics: quietMetrics(0.000001)},
		{AtMs: 5_000, Metrics: quietMetrics(0.000001)},
	}

	res, err := Run(replayConfig(domain.StrategyConservative), snapshots)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.BuySignals != 0 || len(res.Trades) != 0 || res.OpenAtEnd {
		t.Errorf("expected flat replay, got signals=%d trades=%d open=%v",
			res.BuySignals, len(res.Trades), res.OpenAtEnd)
	}
}

func TestRun_OpenAtEnd(t *testing.T) {
	snapshots := []Snapshot{
		{AtMs: 0, Metrics: bullishMetrics(0.000001)},
		{AtMs: 5_000, Metrics: bullishMetrics(0.0000012)},
	}

	res, err := Run(replayConfig(domain.StrategyConservative), snapshots)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.OpenAtEnd {
		t.Error("expected open position at end")
	}
	if len(res.Trades) != 0 || res.TotalPnl != 0 {
		t.Errorf("expected no completed trades, got %d with pnl %d", len(res.Trades), res.TotalPnl)
	}
}

func TestLoadSnapshots(t *testing.T) {
	input := `
{"at_ms": 5000, "mint": "` + replayMint + `", "current_price": 0.000002, "bonding_curve_progress": 50}

{"at_ms": 1000, "mint": "` + replayMint + `", "current_price": 0.000001, "bonding_curve_progress": 45, "is_graduated": true}
`
	snapshots, err := LoadSnapshots(strings.NewReader(input))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].AtMs != 1000 || snapshots[1].AtMs != 5000 {
		t.Errorf("expected sorted order, got %d then %d", snapshots[0].AtMs, snapshots[1].AtMs)
	}
	if !snapshots[0].Metrics.IsGraduated {
		t.Error("expected is_graduated to decode")
	}
	if snapshots[1].Metrics.CurrentPrice != 0.000002 {
		t.Errorf("expected price 0.000002, got %v", snapshots[1].Metrics.CurrentPrice)
	}
}

func TestLoadSnapshots_Errors(t *testing.T) {
	if _, err := LoadSnapshots(strings.NewReader(`{"at_ms": 1}`)); err == nil {
		t.Error("expected error for missing mint")
	}
	if _, err := LoadSnapshots(strings.NewReader(`not json`)); err == nil {
		t.Error("expected error for malformed line")
	}
}
