package vault

import "math"

// Overflow-checked arithmetic for ledger counters. Mirrors the checked_add /
// checked_sub discipline of the on-chain program: fail loudly instead of
// wrapping.

func checkedAddU64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func checkedAddU8(a, b uint8) (uint8, error) {
	if a > math.MaxUint8-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

func checkedSubU8(a, b uint8) (uint8, error) {
	if b > a {
		return 0, ErrMathOverflow
	}
	return a - b, nil
}

func checkedAddI64(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrMathOverflow
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, ErrMathOverflow
	}
	return a + b, nil
}

// pnlLamports computes amountReceived - amountSol as signed lamports.
func pnlLamports(amountReceived, amountSol uint64) (int64, error) {
	if amountReceived > math.MaxInt64 || amountSol > math.MaxInt64 {
		return 0, ErrMathOverflow
	}
	return int64(amountReceived) - int64(amountSol), nil
}
