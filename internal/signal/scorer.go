// Package signal scores token snapshots against the four trading strategy
// variants. Scoring is a pure function of the snapshot: each strategy applies
// hard gates first, then a weighted sum of six normalized factors, producing
// a TradingSignal with confidence in [0,1].
package signal

import (
	"fmt"

	"curverider/internal/domain"
)

// Strategy scores snapshots and proposes exit thresholds for positions it
// opens. Implementations are stateless and safe for concurrent use.
type Strategy interface {
	// Score evaluates one snapshot. Hard-gate failures force a Sell or
	// StrongSell signal regardless of the factor sum.
	Score(m domain.TokenMetrics) domain.TradingSignal

	// ExitParams returns the strategy's exit thresholds.
	ExitParams() domain.ExitParams

	// MinActionConfidence is the confidence floor below which a Buy or
	// StrongBuy is reported as Hold.
	MinActionConfidence() float64

	// Name returns the strategy display name.
	Name() string
}

// ForStrategy returns the scorer for the given strategy type.
func ForStrategy(t domain.StrategyType) (Strategy, error) {
	switch t {
	case domain.StrategyConservative:
		return NewConservative(), nil
	case domain.StrategyUltraEarlySniper:
		return NewUltraEarlySniper(), nil
	case domain.StrategyMomentumScalper:
		return NewMomentumScalper(), nil
	case domain.StrategyGraduationAnticipator:
		return NewGraduationAnticipator(), nil
	default:
		return nil, fmt.Errorf("unknown strategy type: %d", t)
	}
}

// Score evaluates a snapshot for the given strategy type.
func Score(m domain.TokenMetrics, t domain.StrategyType) (domain.TradingSignal, error) {
	s, err := ForStrategy(t)
	if err != nil {
		return domain.TradingSignal{}, err
	}
	return s.Score(m), nil
}

// clamp01 clamps x to [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// rampUp maps x to [0,1]: zero at or below lo, one at or above hi, linear
// between. Monotonically non-decreasing.
func rampUp(x, lo, hi float64) float64 {
	if hi <= lo {
		if x >= hi {
			return 1
		}
		return 0
	}
	return clamp01((x - lo) / (hi - lo))
}

// rampDown is the decreasing counterpart of rampUp: one at or below lo, zero
// at or above hi.
func rampDown(x, lo, hi float64) float64 {
	return 1 - rampUp(x, lo, hi)
}

// kindForConfidence maps a confidence score to a signal kind.
func kindForConfidence(c float64) domain.SignalKind {
	switch {
	case c >= 0.85:
		return domain.SignalStrongBuy
	case c >= 0.65:
		return domain.SignalBuy
	case c >= 0.45:
		return domain.SignalHold
	case c >= 0.30:
		return domain.SignalSell
	default:
		return domain.SignalStrongSell
	}
}

// finalize builds the signal from the accumulated confidence, downgrading a
// Buy/StrongBuy below the strategy's action floor to Hold.
func finalize(s Strategy, strategyType domain.StrategyType, m domain.TokenMetrics, confidence float64, reasons []string) domain.TradingSignal {
	kind := kindForConfidence(confidence)
	if kind.IsBuy() && confidence < s.MinActionConfidence() {
		kind = domain.SignalHold
		reasons = append(reasons, fmt.Sprintf(
			"Confidence %.1f%% below %.0f%% action floor", confidence*100, s.MinActionConfidence()*100))
	}
	return domain.TradingSignal{
		Mint:       m.Mint,
		Strategy:   strategyType,
		Kind:       kind,
		Confidence: confidence,
		Reasons:    reasons,
		ExitParams: s.ExitParams(),
	}
}

// gateFail builds the forced exit signal for a failed hard gate. Severe
// misses report StrongSell, ordinary misses Sell.
func gateFail(s Strategy, strategyType domain.StrategyType, m domain.TokenMetrics, severe bool, reason string) domain.TradingSignal {
	kind := domain.SignalSell
	if severe {
		kind = domain.SignalStrongSell
	}
	return domain.TradingSignal{
		Mint:       m.Mint,
		Strategy:   strategyType,
		Kind:       kind,
		Confidence: 0,
		Reasons:    []string{reason},
		ExitParams: s.ExitParams(),
	}
}
