// Package domain contains the arbitrage monitor's core types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	pricingDomain "github.com/stxdex/price-engine/business/pricing/domain"
)

// Signal is an actionable market/intrinsic divergence on an LP token.
type Signal struct {
	TokenID        string
	Symbol         string
	MarketPrice    decimal.Decimal
	IntrinsicValue decimal.Decimal
	DeviationPct   float64
	Confidence     float64
	DetectedAt     time.Time
}

// FromPriceData converts a priced LP token into a signal when its
// market/intrinsic deviation clears thresholdPct. Tokens without both
// sides of the comparison never signal.
func FromPriceData(data *pricingDomain.TokenPriceData, thresholdPct float64, now time.Time) (*Signal, bool) {
	if data == nil || !data.IsLPToken {
		return nil, false
	}
	if data.MarketPrice == nil || data.IntrinsicValue == nil {
		return nil, false
	}
	dev := data.PriceDeviationPct
	if dev < 0 {
		dev = -dev
	}
	if dev <= thresholdPct {
		return nil, false
	}
	return &Signal{
		TokenID:        data.TokenID,
		Symbol:         data.Symbol,
		MarketPrice:    *data.MarketPrice,
		IntrinsicValue: *data.IntrinsicValue,
		DeviationPct:   data.PriceDeviationPct,
		Confidence:     data.Confidence,
		DetectedAt:     now,
	}, true
}

// Direction names which side of the divergence is rich.
func (s *Signal) Direction() string {
	if s.MarketPrice.GreaterThan(s.IntrinsicValue) {
		return "market-rich"
	}
	return "market-cheap"
}
