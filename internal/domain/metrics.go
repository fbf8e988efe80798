package domain

import "math"

// TokenMetrics is a point-in-time market snapshot for one token, supplied by
// the market-data collaborator. The core only reads it.
type TokenMetrics struct {
	Mint   string
	Symbol string

	// Volume in SOL over trailing windows.
	Volume5m  float64
	Volume1h  float64
	Volume24h float64

	LiquiditySol float64

	HolderCount         int
	HolderConcentration float64 // top-holder fraction, 0..1

	CurrentPrice  float64
	PriceChange5m float64 // fractional, 0.10 = +10%
	PriceChange1h float64

	BuyPressure  float64
	SellPressure float64

	BondingCurveProgress float64 // 0..100
	IsGraduated          bool

	AgeSeconds int64

	// VolumeAcceleration is the 5m volume versus the 1h average 5m volume.
	// Zero means not supplied; use VolumeAccelerationRatio.
	VolumeAcceleration float64
}

// BuySellRatio returns buy pressure over sell pressure. When there is no sell
// pressure the raw buy pressure is returned, matching the analyzer the
// strategies were tuned against.
func (m TokenMetrics) BuySellRatio() float64 {
	if m.SellPressure > 0 {
		return m.BuyPressure / m.SellPressure
	}
	return m.BuyPressure
}

// VolumeAccelerationRatio returns the supplied acceleration, or derives it
// from the 5m/1h volumes when absent.
func (m TokenMetrics) VolumeAccelerationRatio() float64 {
	if m.VolumeAcceleration > 0 {
		return m.VolumeAcceleration
	}
	if m.Volume5m > 0 && m.Volume1h > 0 {
		return (m.Volume5m * 12) / m.Volume1h
	}
	return 1.0
}

// Volatility estimates short-term volatility as the mean of the absolute
// 5m and 1h price changes.
func (m TokenMetrics) Volatility() float64 {
	return (math.Abs(m.PriceChange5m) + math.Abs(m.PriceChange1h)) / 2
}
