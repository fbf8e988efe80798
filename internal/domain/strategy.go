package domain

import (
	"fmt"
	"strings"
)

// StrategyType selects one of the four trading strategy variants.
// Stored as a small integer so it round-trips through the ledger snapshots.
type StrategyType uint8

const (
	StrategyConservative StrategyType = iota
	StrategyUltraEarlySniper
	StrategyMomentumScalper
	StrategyGraduationAnticipator

	strategyCount = 4
)

// Valid reports whether the value is one of the four defined strategies.
func (s StrategyType) Valid() bool {
	return s < strategyCount
}

// String returns the strategy display name.
func (s StrategyType) String() string {
	switch s {
	case StrategyConservative:
		return "Conservative"
	case StrategyUltraEarlySniper:
		return "Ultra-Early Sniper"
	case StrategyMomentumScalper:
		return "Momentum Scalper"
	case StrategyGraduationAnticipator:
		return "Graduation Anticipator"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// ParseStrategy resolves a config name to a StrategyType. Long and short
// forms are accepted; case is ignored.
func ParseStrategy(s string) (StrategyType, error) {
	switch strings.ToLower(s) {
	case "conservative":
		return StrategyConservative, nil
	case "ultra_early_sniper", "ultra-early-sniper", "sniper":
		return StrategyUltraEarlySniper, nil
	case "momentum_scalper", "momentum-scalper", "scalper":
		return StrategyMomentumScalper, nil
	case "graduation_anticipator", "graduation-anticipator", "graduation":
		return StrategyGraduationAnticipator, nil
	default:
		return 0, fmt.Errorf("unknown strategy type: %q", s)
	}
}

// ExitParams are the strategy-specific exit thresholds applied to an open
// position by the exit policy engine.
type ExitParams struct {
	TakeProfitMultiplier  float64 // take-profit at entry * multiplier
	StopLossPct           float64 // stop-loss at entry * (1 - pct)
	TimeoutSeconds        int64   // force close after this hold duration
	UseTrailingStop       bool
	TrailingActivationPct float64 // arm the trail once unrealized gain reaches this
	TrailingDistancePct   float64 // close when price drops this far from the high-water mark
	GraduationExit        bool    // close after the token graduates (plus grace period)
}

// TakeProfitPrice returns the take-profit price for the given entry price.
func (p ExitParams) TakeProfitPrice(entryPrice uint64) uint64 {
	return uint64(float64(entryPrice) * p.TakeProfitMultiplier)
}

// StopLossPrice returns the stop-loss price for the given entry price.
func (p ExitParams) StopLossPrice(entryPrice uint64) uint64 {
	return uint64(float64(entryPrice) * (1 - p.StopLossPct))
}
