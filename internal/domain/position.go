package domain

import "time"

// PositionStatus is the lifecycle state of a position. Transitions are
// Open -> Closed only.
type PositionStatus uint8

const (
	PositionOpen PositionStatus = iota
	PositionClosed
)

// String returns the status name.
func (s PositionStatus) String() string {
	switch s {
	case PositionOpen:
		return "OPEN"
	case PositionClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Exit reason codes, recorded when the exit policy engine closes a position.
const (
	ExitReasonTakeProfit     = "TAKE_PROFIT"
	ExitReasonStopLoss       = "STOP_LOSS"
	ExitReasonTimeout        = "TIMEOUT"
	ExitReasonTrailingStop   = "TRAILING_STOP"
	ExitReasonGraduationExit = "GRADUATION_EXIT"
)

// Position is a single open-or-closed trade record.
type Position struct {
	ID        string // deterministic hash, see idhash
	User      string // delegation owner; the delegation key
	TokenMint string

	AmountSol       uint64 // lamports committed at open
	EntryPrice      uint64
	CurrentPrice    uint64 // last observed price; exit price once closed
	TakeProfitPrice uint64
	StopLossPrice   uint64

	Status   PositionStatus
	OpenedAt time.Time
	ClosedAt time.Time // zero until closed
	Pnl      int64     // lamports; valid only when closed

	// Trailing-stop sub-state, used only while Open by strategies with a
	// trailing stop.
	TrailingArmed      bool
	HighWaterMarkPrice uint64
}
