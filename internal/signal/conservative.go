package signal

import (
	"fmt"

	"curverider/internal/domain"
)

// Conservative is the default multi-factor strategy: volume 25%, liquidity
// 20%, holders 15%, momentum 20%, buy pressure 10%, bonding-curve fit 10%.
// It only enters the validated middle of the bonding curve.
type Conservative struct {
	minVolume5m      float64
	minLiquidity     float64
	minHolderCount   float64
	maxConcentration float64
}

// NewConservative creates the conservative scorer with its tuned thresholds.
func NewConservative() *Conservative {
	return &Conservative{
		minVolume5m:      10.0,
		minLiquidity:     5.0,
		minHolderCount:   50,
		maxConcentration: 0.30,
	}
}

// Name returns the strategy display name.
func (s *Conservative) Name() string { return "Conservative Multi-Factor" }

// MinActionConfidence returns the entry confidence floor.
func (s *Conservative) MinActionConfidence() float64 { return 0.80 }

// ExitParams returns 2x take-profit, 50% stop-loss, 1h timeout.
func (s *Conservative) ExitParams() domain.ExitParams {
	return domain.ExitParams{
		TakeProfitMultiplier: 2.0,
		StopLossPct:          0.50,
		TimeoutSeconds:       3600,
	}
}

// Score evaluates one snapshot.
func (s *Conservative) Score(m domain.TokenMetrics) domain.TradingSignal {
	// Hard gate: bonding curve in the validated sweet spot.
	if p := m.BondingCurveProgress; p < 30 || p > 70 {
		severe := p < 10 || p > 90
		return gateFail(s, domain.StrategyConservative, m, severe,
			fmt.Sprintf("Bonding curve %.1f%% outside sweet spot (30-70%%)", p))
	}

	var score float64
	var reasons []string

	// Volume: 5m level plus acceleration, saturating at 2x the reference.
	accel := m.VolumeAccelerationRatio()
	volume := 0.6*rampUp(m.Volume5m, 0, 2*s.minVolume5m) + 0.4*rampUp(accel, 1.0, 1.5)
	score += volume * 0.25
	if m.Volume5m > s.minVolume5m {
		reasons = append(reasons, fmt.Sprintf("Good 5m volume: %.2f SOL", m.Volume5m))
	} else {
		reasons = append(reasons, fmt.Sprintf("Low 5m volume: %.2f SOL", m.Volume5m))
	}
	if accel > 1.5 {
		reasons = append(reasons, fmt.Sprintf("Volume accelerating: %.2fx", accel))
	}

	// Liquidity: saturates at 3x the floor.
	score += rampUp(m.LiquiditySol, 0, 3*s.minLiquidity) * 0.20
	if m.LiquiditySol > s.minLiquidity {
		reasons = append(reasons, fmt.Sprintf("Liquidity: %.2f SOL", m.LiquiditySol))
	} else {
		reasons = append(reasons, fmt.Sprintf("Low liquidity: %.2f SOL (risky)", m.LiquiditySol))
	}

	// Holders: count saturates at 3x the floor, concentration penalized
	// toward the ceiling.
	holders := 0.5*rampUp(float64(m.HolderCount), 0, 3*s.minHolderCount) +
		0.5*rampDown(m.HolderConcentration, 0.5*s.maxConcentration, s.maxConcentration)
	score += holders * 0.15
	reasons = append(reasons, fmt.Sprintf("%d holders, %.1f%% top concentration",
		m.HolderCount, m.HolderConcentration*100))

	// Momentum: 5m and 1h price changes.
	momentum := 0.5*rampUp(m.PriceChange5m, 0, 0.20) + 0.5*rampUp(m.PriceChange1h, 0, 0.50)
	score += momentum * 0.20
	if m.PriceChange5m > 0 {
		reasons = append(reasons, fmt.Sprintf("Positive 5m: +%.1f%%", m.PriceChange5m*100))
	} else {
		reasons = append(reasons, fmt.Sprintf("Negative 5m: %.1f%%", m.PriceChange5m*100))
	}

	// Buy pressure.
	ratio := m.BuySellRatio()
	score += rampUp(ratio, 1.0, 3.0) * 0.10
	reasons = append(reasons, fmt.Sprintf("Buy/sell pressure: %.2f:1", ratio))

	// Bonding-curve fit: full credit inside the gated sweet spot.
	score += 1.0 * 0.10
	reasons = append(reasons, fmt.Sprintf("Sweet spot: %.1f%% bonding curve", m.BondingCurveProgress))

	return finalize(s, domain.StrategyConservative, m, clamp01(score), reasons)
}

var _ Strategy = (*Conservative)(nil)
