// Package exitpolicy decides when an open position must close. Evaluation is
// a pure function of the position, its strategy exit parameters and the
// current price; the only state it touches is the position's trailing-stop
// sub-state (armed flag and high-water mark).
package exitpolicy

import (
	"time"

	"curverider/internal/domain"
)

// graduationGraceSeconds is how long after the graduation event fires before
// the graduation override closes the position.
const graduationGraceSeconds = 300

// Decision is the outcome of one evaluation tick.
type Decision struct {
	Close  bool
	Reason string // exit reason code, set when Close is true
}

// Evaluate runs one exit-policy tick for a position. Check order: take-profit,
// stop-loss, timeout, trailing stop, graduation override. The trailing-stop
// sub-state is updated in place on the position. Evaluating a closed position
// is a no-op, never an error.
//
// graduatedAt is the timestamp of the token's graduation event, or the zero
// time if it has not fired.
func Evaluate(pos *domain.Position, params domain.ExitParams, currentPrice uint64, now time.Time, graduatedAt time.Time) Decision {
	if pos.Status != domain.PositionOpen {
		return Decision{}
	}

	if currentPrice >= pos.TakeProfitPrice {
		return Decision{Close: true, Reason: domain.ExitReasonTakeProfit}
	}
	if currentPrice <= pos.StopLossPrice {
		return Decision{Close: true, Reason: domain.ExitReasonStopLoss}
	}
	if now.Sub(pos.OpenedAt) >= time.Duration(params.TimeoutSeconds)*time.Second {
		return Decision{Close: true, Reason: domain.ExitReasonTimeout}
	}

	if params.UseTrailingStop {
		if d := evaluateTrailing(pos, params, currentPrice); d.Close {
			return d
		}
	}

	if params.GraduationExit && !graduatedAt.IsZero() &&
		now.Sub(graduatedAt) >= graduationGraceSeconds*time.Second {
		return Decision{Close: true, Reason: domain.ExitReasonGraduationExit}
	}

	return Decision{}
}

// evaluateTrailing runs the trailing-stop sub-state machine: arm once the
// unrealized gain reaches the activation threshold, ratchet the high-water
// mark while armed, close once price falls the trailing distance below it.
func evaluateTrailing(pos *domain.Position, params domain.ExitParams, currentPrice uint64) Decision {
	if !pos.TrailingArmed {
		gain := unrealizedGain(pos.EntryPrice, currentPrice)
		if gain < params.TrailingActivationPct {
			return Decision{}
		}
		pos.TrailingArmed = true
		pos.HighWaterMarkPrice = currentPrice
		return Decision{}
	}

	if currentPrice > pos.HighWaterMarkPrice {
		pos.HighWaterMarkPrice = currentPrice
	}

	floor := float64(pos.HighWaterMarkPrice) * (1 - params.TrailingDistancePct)
	if float64(currentPrice) <= floor {
		return Decision{Close: true, Reason: domain.ExitReasonTrailingStop}
	}
	return Decision{}
}

// unrealizedGain returns the fractional gain of currentPrice over entryPrice.
func unrealizedGain(entryPrice, currentPrice uint64) float64 {
	if entryPrice == 0 {
		return 0
	}
	return (float64(currentPrice) - float64(entryPrice)) / float64(entryPrice)
}
