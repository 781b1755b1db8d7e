package token

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExchangeRate(t *testing.T) {
	tests := []struct {
		name        string
		reserveIn   string
		decimalsIn  int32
		reserveOut  string
		decimalsOut int32
		want        string
		ok          bool
	}{
		{
			name:       "equal_decimals_simple_ratio",
			reserveIn:  "1000000", decimalsIn: 6,
			reserveOut: "2000000", decimalsOut: 6,
			want: "2", ok: true,
		},
		{
			name:       "mixed_decimals_normalized",
			reserveIn:  "1000000", decimalsIn: 6, // 1.0
			reserveOut: "50000000", decimalsOut: 8, // 0.5
			want: "0.5", ok: true,
		},
		{
			name:       "eight_decimal_anchor_side",
			reserveIn:  "250000000000", decimalsIn: 6, // 250000
			reserveOut: "500000000", decimalsOut: 8, // 5
			want: "0.00002", ok: true,
		},
		{
			name:       "zero_in_reserve_rejected",
			reserveIn:  "0", decimalsIn: 6,
			reserveOut: "1000", decimalsOut: 6,
			ok: false,
		},
		{
			name:       "zero_out_reserve_rejected",
			reserveIn:  "1000", decimalsIn: 6,
			reserveOut: "0", decimalsOut: 6,
			ok: false,
		},
		{
			name:       "negative_reserve_rejected",
			reserveIn:  "-5", decimalsIn: 6,
			reserveOut: "1000", decimalsOut: 6,
			ok: false,
		},
		{
			name:       "negative_decimals_rejected",
			reserveIn:  "1000", decimalsIn: -1,
			reserveOut: "1000", decimalsOut: 6,
			ok: false,
		},
		{
			name:       "absurd_decimals_rejected",
			reserveIn:  "1000", decimalsIn: 6,
			reserveOut: "1000", decimalsOut: 64,
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExchangeRate(dec(tt.reserveIn), tt.decimalsIn, dec(tt.reserveOut), tt.decimalsOut)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("rate = %s, want %s", got, tt.want)
			}
			if got.Sign() <= 0 {
				t.Errorf("rate must be strictly positive, got %s", got)
			}
		})
	}
}

// Any pair of positive reserves with sane decimals must produce a strictly
// positive, finite rate.
func TestExchangeRate_PositiveReservesAlwaysPositiveRate(t *testing.T) {
	reserves := []string{"1", "17", "999983", "100000000000000", "5"}
	decimalsSet := []int32{0, 6, 8, 18}

	for _, rIn := range reserves {
		for _, rOut := range reserves {
			for _, dIn := range decimalsSet {
				for _, dOut := range decimalsSet {
					rate, ok := ExchangeRate(dec(rIn), dIn, dec(rOut), dOut)
					if !ok {
						t.Fatalf("ExchangeRate(%s,%d,%s,%d) unexpectedly invalid", rIn, dIn, rOut, dOut)
					}
					if rate.Sign() <= 0 {
						t.Fatalf("ExchangeRate(%s,%d,%s,%d) = %s, want > 0", rIn, dIn, rOut, dOut, rate)
					}
				}
			}
		}
	}
}

func TestDecimalsFor(t *testing.T) {
	tokens := map[string]Token{
		"SP1.alex-token": {ContractID: "SP1.alex-token", Symbol: "ALEX", Decimals: 8},
		"SP2.bad-token":  {ContractID: "SP2.bad-token", Symbol: "BAD", Decimals: 99},
	}

	if got := DecimalsFor("SP1.alex-token", tokens); got != 8 {
		t.Errorf("known token: got %d, want 8", got)
	}
	if got := DecimalsFor("SP9.unknown", tokens); got != DefaultDecimals {
		t.Errorf("unknown token: got %d, want default %d", got, DefaultDecimals)
	}
	if got := DecimalsFor("SP2.bad-token", tokens); got != DefaultDecimals {
		t.Errorf("invalid precision: got %d, want default %d", got, DefaultDecimals)
	}
}

func TestAtomicToDecimal(t *testing.T) {
	got := AtomicToDecimal(dec("1500000"), 6)
	if !got.Equal(dec("1.5")) {
		t.Errorf("got %s, want 1.5", got)
	}

	roundTrip := DecimalToAtomic(got, 6)
	if !roundTrip.Equal(dec("1500000")) {
		t.Errorf("round trip: got %s, want 1500000", roundTrip)
	}
}
