// Package domain holds the pricing context's model: published price data,
// hybrid market/intrinsic reconciliation, and LP token classification.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSource tags how a published price was derived.
type PriceSource string

const (
	// SourceDirect marks anchor and stablecoin shortcut prices.
	SourceDirect PriceSource = "direct"

	// SourceMarket marks prices derived purely from liquidity-graph paths.
	SourceMarket PriceSource = "market"

	// SourceIntrinsic marks LP prices derived from redeemable reserves.
	SourceIntrinsic PriceSource = "intrinsic"

	// SourceHybrid marks prices blending market and intrinsic estimates.
	SourceHybrid PriceSource = "hybrid"
)

// IntrinsicMethod tags which LP valuation strategy produced an estimate.
type IntrinsicMethod string

const (
	MethodQuote         IntrinsicMethod = "quote"
	MethodGeometricMean IntrinsicMethod = "geometric-mean"
)

// BTCPrice is the reference asset's current USD quote.
type BTCPrice struct {
	Price      decimal.Decimal
	Confidence float64
	UpdatedAt  time.Time
}

// CalculationDetails records the provenance of a published price.
type CalculationDetails struct {
	BTCPriceUSD decimal.Decimal
	PathsUsed   int

	// TotalLiquidity is the summed atomic liquidity across contributing
	// paths, the input to depth-normalized confidence scoring.
	TotalLiquidity decimal.Decimal

	// PriceVariation is the coefficient of variation across the retained
	// path ratios.
	PriceVariation float64

	PriceSource     PriceSource
	IntrinsicMethod IntrinsicMethod
}

// TokenPriceData is the published pricing result for one token. It is
// immutable once computed; a recomputation produces a new record.
type TokenPriceData struct {
	TokenID     string
	Symbol      string
	USDPrice    decimal.Decimal
	AnchorRatio decimal.Decimal
	Confidence  float64
	UpdatedAt   time.Time

	MarketPrice            *decimal.Decimal
	IntrinsicValue         *decimal.Decimal
	PriceDeviationPct      float64
	IsArbitrageOpportunity bool
	IsLPToken              bool

	Details CalculationDetails
}

// Quote is a price estimate with its own confidence, the unit of hybrid
// reconciliation.
type Quote struct {
	Price      decimal.Decimal
	Confidence float64
}

// AssetBreakdown is the per-underlying share of an LP token's value.
type AssetBreakdown struct {
	TokenID  string
	Symbol   string
	Amount   decimal.Decimal // human units redeemable per LP unit
	ValueUSD decimal.Decimal
	SharePct float64
}

// LPAnalysis is the transient market-vs-intrinsic comparison for one LP
// token. It feeds TokenPriceData and is not persisted on its own.
type LPAnalysis struct {
	VaultID                string
	MarketPrice            *decimal.Decimal
	IntrinsicValue         decimal.Decimal
	DeviationPct           float64
	IsArbitrageOpportunity bool
	Method                 IntrinsicMethod
	Breakdown              []AssetBreakdown
}
