package domain

import "testing"

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		input string
		want  StrategyType
	}{
		{"conservative", StrategyConservative},
		{"Conservative", StrategyConservative},
		{"ultra_early_sniper", StrategyUltraEarlySniper},
		{"ultra-early-sniper", StrategyUltraEarlySniper},
		{"sniper", StrategyUltraEarlySniper},
		{"momentum_scalper", StrategyMomentumScalper},
		{"scalper", StrategyMomentumScalper},
		{"graduation_anticipator", StrategyGraduationAnticipator},
		{"graduation", StrategyGraduationAnticipator},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.input)
		if err != nil {
			t.Errorf("ParseStrategy(%q): %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseStrategy(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}

	if _, err := ParseStrategy("martingale"); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}

func TestStrategyTypeValid(t *testing.T) {
	for s := StrategyType(0); s < strategyCount; s++ {
		if !s.Valid() {
			t.Errorf("expected strategy %d to be valid", s)
		}
	}
	if StrategyType(4).Valid() {
		t.Error("expected strategy 4 to be invalid")
	}
}
