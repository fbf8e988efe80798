package signal

import (
	"fmt"

	"curverider/internal/domain"
)

// GraduationAnticipator positions ahead of the DEX migration in the 60-85%
// bonding-curve band. Weights: volume 15%, liquidity 25%, holders 20%,
// bonding-curve fit 30%, price stability 10%.
type GraduationAnticipator struct {
	minLiquidity     float64
	minHolderCount   float64
	maxConcentration float64
}

// NewGraduationAnticipator creates the graduation scorer. It wants an
// established community and migration-ready liquidity.
func NewGraduationAnticipator() *GraduationAnticipator {
	return &GraduationAnticipator{
		minLiquidity:     15.0,
		minHolderCount:   100,
		maxConcentration: 0.25,
	}
}

// Name returns the strategy display name.
func (s *GraduationAnticipator) Name() string { return "Graduation Anticipator (Low Risk)" }

// MinActionConfidence returns the entry confidence floor.
func (s *GraduationAnticipator) MinActionConfidence() float64 { return 0.78 }

// ExitParams returns 1.8x take-profit, 35% stop-loss, 2h timeout, with the
// graduation override closing the position after the migration fires.
func (s *GraduationAnticipator) ExitParams() domain.ExitParams {
	return domain.ExitParams{
		TakeProfitMultiplier: 1.8,
		StopLossPct:          0.35,
		TimeoutSeconds:       7200,
		GraduationExit:       true,
	}
}

// Score evaluates one snapshot.
func (s *GraduationAnticipator) Score(m domain.TokenMetrics) domain.TradingSignal {
	// Hard gates: graduation zone, not yet graduated.
	if p := m.BondingCurveProgress; p < 60 || p > 85 {
		return gateFail(s, domain.StrategyGraduationAnticipator, m, p < 30,
			fmt.Sprintf("Bonding curve %.1f%% outside graduation zone (60-85%%)", p))
	}
	if m.IsGraduated {
		return gateFail(s, domain.StrategyGraduationAnticipator, m, false,
			"Already graduated to DEX")
	}

	var score float64
	var reasons []string

	// Sustained 24h volume.
	score += rampUp(m.Volume24h, 0, 100) * 0.15
	reasons = append(reasons, fmt.Sprintf("24h volume: %.1f SOL", m.Volume24h))

	// Migration-ready liquidity, saturating at 2x the floor.
	score += rampUp(m.LiquiditySol, 0, 2*s.minLiquidity) * 0.25
	if m.LiquiditySol > s.minLiquidity {
		reasons = append(reasons, fmt.Sprintf("DEX-ready liquidity: %.1f SOL", m.LiquiditySol))
	} else {
		reasons = append(reasons, fmt.Sprintf("Low liquidity: %.1f SOL (risky)", m.LiquiditySol))
	}

	// Community strength: holder count plus distribution.
	holders := 0.5*rampUp(float64(m.HolderCount), 0, 2*s.minHolderCount) +
		0.5*rampDown(m.HolderConcentration, 0.6*s.maxConcentration, s.maxConcentration)
	score += holders * 0.20
	reasons = append(reasons, fmt.Sprintf("%d holders, %.1f%% top concentration",
		m.HolderCount, m.HolderConcentration*100))

	// Bonding-curve fit: sweet spot just below graduation.
	var curve float64
	switch p := m.BondingCurveProgress; {
	case p >= 70 && p <= 80:
		curve = 1.0
	case p >= 65 && p < 85:
		curve = 0.8
	default:
		curve = 0.5
	}
	score += curve * 0.30
	reasons = append(reasons, fmt.Sprintf("Near graduation: %.1f%% bonding curve", m.BondingCurveProgress))

	// Price stability: calm tape suggests an orderly migration.
	vol := m.Volatility()
	score += rampDown(vol, 0.20, 0.40) * 0.10
	if vol < 0.20 {
		reasons = append(reasons, "Stable price action (low volatility)")
	} else {
		reasons = append(reasons, fmt.Sprintf("Volatility %.0f%%", vol*100))
	}

	return finalize(s, domain.StrategyGraduationAnticipator, m, clamp01(score), reasons)
}

var _ Strategy = (*GraduationAnticipator)(nil)
