package signal

import (
	"math"
	"testing"

	"curverider/internal/domain"
)

// explosiveMover is mid-curve with a violent 1h trend still running.
func explosiveMover() domain.TokenMetrics {
	return domain.TokenMetrics{
		Mint:                 "mint",
		BondingCurveProgress: 60,
		Volume5m:             60,
		LiquiditySol:         16,
		PriceChange5m:        0.20,
		PriceChange1h:        1.20,
		BuyPressure:          3,
		SellPressure:         1,
	}
}

func TestScalper_StrongBuy(t *testing.T) {
	sig := NewMomentumScalper().Score(explosiveMover())

	if sig.Kind != domain.SignalStrongBuy {
		t.Errorf("expected STRONG_BUY, got %s (confidence %.3f)", sig.Kind, sig.Confidence)
	}
	if math.Abs(sig.Confidence-1.0) > 0.001 {
		t.Errorf("expected full confidence, got %.3f", sig.Confidence)
	}
	if !sig.ExitParams.UseTrailingStop {
		t.Error("expected trailing stop in scalper exit params")
	}
}

func TestScalper_CurveGate(t *testing.T) {
	cases := []struct {
		progress float64
		want     domain.SignalKind
	}{
		{30, domain.SignalSell},
		{90, domain.SignalSell},
		{10, domain.SignalStrongSell},
		{98, domain.SignalStrongSell},
	}
	for _, tc := range cases {
		m := explosiveMover()
		m.BondingCurveProgress = tc.progress
		if sig := NewMomentumScalper().Score(m); sig.Kind != tc.want {
			t.Errorf("progress %.0f: expected %s, got %s", tc.progress, tc.want, sig.Kind)
		}
	}
}

func TestScalper_MomentumGate(t *testing.T) {
	m := explosiveMover()
	m.PriceChange1h = 0.30
	if sig := NewMomentumScalper().Score(m); sig.Kind != domain.SignalSell {
		t.Errorf("1h +30%%: expected SELL, got %s", sig.Kind)
	}

	m.PriceChange1h = -0.10
	if sig := NewMomentumScalper().Score(m); sig.Kind != domain.SignalStrongSell {
		t.Errorf("1h -10%%: expected STRONG_SELL, got %s", sig.Kind)
	}
}

func TestScalper_ThinVolumeScoresLower(t *testing.T) {
	m := explosiveMover()
	m.Volume5m = 10
	m.LiquiditySol = 4
	m.BuyPressure = 1

	sig := NewMomentumScalper().Score(m)

	// Momentum alone: 40% weight plus partial volume and liquidity.
	if sig.Kind == domain.SignalStrongBuy {
		t.Errorf("thin tape should not be a strong buy (confidence %.3f)", sig.Confidence)
	}
	if sig.Confidence >= explosiveScalperConfidence(t) {
		t.Errorf("expected lower confidence than full snapshot, got %.3f", sig.Confidence)
	}
}

func explosiveScalperConfidence(t *testing.T) float64 {
	t.Helper()
	return NewMomentumScalper().Score(explosiveMover()).Confidence
}
