package signal

import (
	"fmt"

	"curverider/internal/domain"
)

// MomentumScalper rides explosive moves in the 40-80% bonding-curve band for
// quick flips. Weights: volume 30%, liquidity 10%, momentum 40%, buy pressure
// 20%. The only strategy with a trailing stop.
type MomentumScalper struct {
	minLiquidity float64
	minVolume5m  float64
}

// NewMomentumScalper creates the scalper with exit-liquidity thresholds.
func NewMomentumScalper() *MomentumScalper {
	return &MomentumScalper{
		minLiquidity: 8.0,
		minVolume5m:  20.0,
	}
}

// Name returns the strategy display name.
func (s *MomentumScalper) Name() string { return "Momentum Scalper (Quick Flips)" }

// MinActionConfidence returns the entry confidence floor.
func (s *MomentumScalper) MinActionConfidence() float64 { return 0.75 }

// ExitParams returns 1.5x take-profit, 25% stop-loss, 30min timeout, with the
// trailing stop arming at +20% and trailing 10% off the high-water mark.
func (s *MomentumScalper) ExitParams() domain.ExitParams {
	return domain.ExitParams{
		TakeProfitMultiplier:  1.5,
		StopLossPct:           0.25,
		TimeoutSeconds:        1800,
		UseTrailingStop:       true,
		TrailingActivationPct: 0.20,
		TrailingDistancePct:   0.10,
	}
}

// Score evaluates one snapshot.
func (s *MomentumScalper) Score(m domain.TokenMetrics) domain.TradingSignal {
	// Hard gates: momentum zone on the curve and explosive 1h growth.
	if p := m.BondingCurveProgress; p < 40 || p > 80 {
		return gateFail(s, domain.StrategyMomentumScalper, m, p < 20 || p > 95,
			fmt.Sprintf("Bonding curve %.1f%% outside momentum zone (40-80%%)", p))
	}
	if m.PriceChange1h <= 0.50 {
		return gateFail(s, domain.StrategyMomentumScalper, m, m.PriceChange1h <= 0,
			fmt.Sprintf("1h change %+.1f%% below momentum threshold (+50%%)", m.PriceChange1h*100))
	}

	var score float64
	var reasons []string

	// Volume: saturates at 3x the floor.
	score += rampUp(m.Volume5m, 0, 3*s.minVolume5m) * 0.30
	reasons = append(reasons, fmt.Sprintf("5m volume: %.1f SOL", m.Volume5m))

	// Liquidity: enough to exit through.
	score += rampUp(m.LiquiditySol, 0, 2*s.minLiquidity) * 0.10
	if m.LiquiditySol > s.minLiquidity {
		reasons = append(reasons, fmt.Sprintf("Good liquidity: %.1f SOL", m.LiquiditySol))
	} else {
		reasons = append(reasons, fmt.Sprintf("Low liquidity: %.1f SOL (risky exit)", m.LiquiditySol))
	}

	// Momentum carries the strategy: 1h trend plus 5m continuation.
	momentum := 0.7*rampUp(m.PriceChange1h, 0.30, 1.0) + 0.3*rampUp(m.PriceChange5m, 0, 0.20)
	score += momentum * 0.40
	reasons = append(reasons, fmt.Sprintf("Explosive 1h growth: +%.1f%%", m.PriceChange1h*100))
	if m.PriceChange5m > 0.10 {
		reasons = append(reasons, fmt.Sprintf("5m continuation: +%.1f%%", m.PriceChange5m*100))
	}

	// Buy pressure.
	ratio := m.BuySellRatio()
	score += rampUp(ratio, 1.0, 3.0) * 0.20
	reasons = append(reasons, fmt.Sprintf("Buy pressure: %.1f:1", ratio))

	return finalize(s, domain.StrategyMomentumScalper, m, clamp01(score), reasons)
}

var _ Strategy = (*MomentumScalper)(nil)
