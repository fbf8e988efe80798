package signal

import (
	"fmt"

	"curverider/internal/domain"
)

// UltraEarlySniper enters in the first five minutes of a token's life, before
// the bonding curve passes 10%. Weights: volume 30%, liquidity 5%, holders
// 10%, momentum 20%, buy pressure 35%.
type UltraEarlySniper struct {
	minLiquidity float64
}

// NewUltraEarlySniper creates the ultra-early scorer. It tolerates very low
// liquidity; at this age there is not much to be had.
func NewUltraEarlySniper() *UltraEarlySniper {
	return &UltraEarlySniper{minLiquidity: 1.0}
}

// Name returns the strategy display name.
func (s *UltraEarlySniper) Name() string { return "Ultra-Early Sniper (High Risk)" }

// MinActionConfidence returns the entry confidence floor.
func (s *UltraEarlySniper) MinActionConfidence() float64 { return 0.75 }

// ExitParams returns 3x take-profit, 30% stop-loss, 10min timeout.
func (s *UltraEarlySniper) ExitParams() domain.ExitParams {
	return domain.ExitParams{
		TakeProfitMultiplier: 3.0,
		StopLossPct:          0.30,
		TimeoutSeconds:       600,
	}
}

// Score evaluates one snapshot.
func (s *UltraEarlySniper) Score(m domain.TokenMetrics) domain.TradingSignal {
	// Hard gates: must be under five minutes old and under 10% curve
	// progress.
	if m.AgeSeconds >= 300 {
		return gateFail(s, domain.StrategyUltraEarlySniper, m, m.AgeSeconds >= 600,
			fmt.Sprintf("Too old for ultra-early entry: %ds (>5min)", m.AgeSeconds))
	}
	if m.BondingCurveProgress >= 10 {
		return gateFail(s, domain.StrategyUltraEarlySniper, m, m.BondingCurveProgress >= 20,
			fmt.Sprintf("Bonding curve too advanced for ultra-early: %.1f%% (>10%%)", m.BondingCurveProgress))
	}

	var score float64
	var reasons []string

	// Volume acceleration is the loudest early tell.
	accel := m.VolumeAccelerationRatio()
	score += rampUp(accel, 1.0, 5.0) * 0.30
	if accel > 3.0 {
		reasons = append(reasons, fmt.Sprintf("Strong volume acceleration: %.1fx", accel))
	} else {
		reasons = append(reasons, fmt.Sprintf("Volume acceleration: %.1fx", accel))
	}

	// Liquidity barely matters this early.
	score += rampUp(m.LiquiditySol, 0, 3*s.minLiquidity) * 0.05
	reasons = append(reasons, fmt.Sprintf("Early liquidity: %.1f SOL", m.LiquiditySol))

	// Holder growth.
	score += rampUp(float64(m.HolderCount), 0, 50) * 0.10
	reasons = append(reasons, fmt.Sprintf("%d holders", m.HolderCount))

	// 5m momentum.
	score += rampUp(m.PriceChange5m, 0, 0.50) * 0.20
	if m.PriceChange5m > 0.30 {
		reasons = append(reasons, fmt.Sprintf("Strong 5m momentum: +%.1f%%", m.PriceChange5m*100))
	} else {
		reasons = append(reasons, fmt.Sprintf("5m momentum: %+.1f%%", m.PriceChange5m*100))
	}

	// Buy pressure dominates the decision.
	ratio := m.BuySellRatio()
	score += rampUp(ratio, 1.0, 10.0) * 0.35
	if ratio > 5.0 {
		reasons = append(reasons, fmt.Sprintf("Dominant buy pressure: %.1f:1 ratio", ratio))
	} else {
		reasons = append(reasons, fmt.Sprintf("Buy pressure: %.1f:1 ratio", ratio))
	}

	return finalize(s, domain.StrategyUltraEarlySniper, m, clamp01(score), reasons)
}

var _ Strategy = (*UltraEarlySniper)(nil)
