package domain

// SignalKind classifies a scored opportunity.
type SignalKind string

const (
	SignalStrongBuy  SignalKind = "STRONG_BUY"
	SignalBuy        SignalKind = "BUY"
	SignalHold       SignalKind = "HOLD"
	SignalSell       SignalKind = "SELL"
	SignalStrongSell SignalKind = "STRONG_SELL"
)

// IsBuy reports whether the kind authorizes an entry.
func (k SignalKind) IsBuy() bool {
	return k == SignalBuy || k == SignalStrongBuy
}

// TradingSignal is the output of the signal scorer for one token snapshot.
type TradingSignal struct {
	Mint       string
	Strategy   StrategyType
	Kind       SignalKind
	Confidence float64 // 0..1
	Reasons    []string
	ExitParams ExitParams // proposed exit thresholds for the scoring strategy
}
