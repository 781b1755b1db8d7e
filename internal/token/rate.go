package token

import "github.com/shopspring/decimal"

// AtomicToDecimal converts an atomic (smallest-unit) quantity to human units
// by shifting down by the token's decimal count.
func AtomicToDecimal(atomic decimal.Decimal, decimals int32) decimal.Decimal {
	return atomic.Shift(-decimals)
}

// DecimalToAtomic converts a human-unit quantity to atomic units, truncating
// any precision below the token's smallest unit.
func DecimalToAtomic(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Shift(decimals).Truncate(0)
}

// ExchangeRate converts two atomic reserves, each with its own precision,
// into a dimensionless output-per-input rate by normalizing both sides to
// human units first. The boolean is false when either reserve is
// non-positive or either decimal count is out of range; callers skip the
// hop instead of aborting the whole calculation.
func ExchangeRate(reserveIn decimal.Decimal, decimalsIn int32, reserveOut decimal.Decimal, decimalsOut int32) (decimal.Decimal, bool) {
	if !ValidDecimals(decimalsIn) || !ValidDecimals(decimalsOut) {
		return decimal.Zero, false
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return decimal.Zero, false
	}

	in := AtomicToDecimal(reserveIn, decimalsIn)
	out := AtomicToDecimal(reserveOut, decimalsOut)
	if in.Sign() <= 0 {
		return decimal.Zero, false
	}

	return out.DivRound(in, 18), true
}
