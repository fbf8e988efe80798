package signal

import (
	"math"
	"testing"

	"curverider/internal/domain"
)

// freshLaunch is a minutes-old token with explosive early demand.
func freshLaunch() domain.TokenMetrics {
	return domain.TokenMetrics{
		Mint:                 "mint",
		AgeSeconds:           120,
		BondingCurveProgress: 5,
		VolumeAcceleration:   5,
		LiquiditySol:         3,
		HolderCount:          50,
		PriceChange5m:        0.50,
		BuyPressure:          10,
		SellPressure:         1,
	}
}

func TestSniper_StrongBuy(t *testing.T) {
	sig := NewUltraEarlySniper().Score(freshLaunch())

	if sig.Kind != domain.SignalStrongBuy {
		t.Errorf("expected STRONG_BUY, got %s (confidence %.3f)", sig.Kind, sig.Confidence)
	}
	if math.Abs(sig.Confidence-1.0) > 0.001 {
		t.Errorf("expected full confidence, got %.3f", sig.Confidence)
	}
}

func TestSniper_AgeGate(t *testing.T) {
	m := freshLaunch()
	m.AgeSeconds = 400
	if sig := NewUltraEarlySniper().Score(m); sig.Kind != domain.SignalSell {
		t.Errorf("age 400s: expected SELL, got %s", sig.Kind)
	}

	m.AgeSeconds = 700
	if sig := NewUltraEarlySniper().Score(m); sig.Kind != domain.SignalStrongSell {
		t.Errorf("age 700s: expected STRONG_SELL, got %s", sig.Kind)
	}
}

func TestSniper_CurveGate(t *testing.T) {
	m := freshLaunch()
	m.BondingCurveProgress = 15
	if sig := NewUltraEarlySniper().Score(m); sig.Kind != domain.SignalSell {
		t.Errorf("progress 15: expected SELL, got %s", sig.Kind)
	}

	m.BondingCurveProgress = 25
	if sig := NewUltraEarlySniper().Score(m); sig.Kind != domain.SignalStrongSell {
		t.Errorf("progress 25: expected STRONG_SELL, got %s", sig.Kind)
	}
}

func TestSniper_DowngradesBuyBelowFloor(t *testing.T) {
	// Slower tape: buy pressure 7:1 and weak 5m momentum land in the buy
	// band below the 0.75 action floor.
	m := freshLaunch()
	m.PriceChange5m = 0.10
	m.BuyPressure = 7

	sig := NewUltraEarlySniper().Score(m)

	if math.Abs(sig.Confidence-0.7233) > 0.001 {
		t.Fatalf("expected confidence 0.723, got %.4f", sig.Confidence)
	}
	if sig.Kind != domain.SignalHold {
		t.Errorf("expected HOLD after downgrade, got %s", sig.Kind)
	}
}
