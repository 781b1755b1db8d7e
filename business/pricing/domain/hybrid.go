package domain

import "github.com/shopspring/decimal"

// HybridStrategy selects how a market price and an intrinsic LP estimate
// are reconciled when both exist for the same token.
type HybridStrategy string

const (
	// StrategyFallback prefers the market price, using the intrinsic
	// estimate only when no market price exists.
	StrategyFallback HybridStrategy = "fallback"

	// StrategyAverage takes the simple mean; confidence is the minimum of
	// the two inputs.
	StrategyAverage HybridStrategy = "average"

	// StrategyWeighted blends both by a configured market weight.
	StrategyWeighted HybridStrategy = "weighted"
)

// Reconcile combines a market quote and an intrinsic quote under the given
// strategy. Either input may be nil; with exactly one present that quote is
// returned with its natural source tag. Both nil is a caller bug and yields
// a zero quote.
func Reconcile(strategy HybridStrategy, marketWeight float64, market, intrinsic *Quote) (Quote, PriceSource) {
	switch {
	case market == nil && intrinsic == nil:
		return Quote{}, SourceMarket
	case market == nil:
		return *intrinsic, SourceIntrinsic
	case intrinsic == nil:
		return *market, SourceMarket
	}

	switch strategy {
	case StrategyAverage:
		mean := market.Price.Add(intrinsic.Price).Div(decimal.NewFromInt(2))
		conf := market.Confidence
		if intrinsic.Confidence < conf {
			conf = intrinsic.Confidence
		}
		return Quote{Price: mean, Confidence: conf}, SourceHybrid

	case StrategyWeighted:
		w := decimal.NewFromFloat(marketWeight)
		iw := decimal.NewFromInt(1).Sub(w)
		price := market.Price.Mul(w).Add(intrinsic.Price.Mul(iw))
		conf := marketWeight*market.Confidence + (1-marketWeight)*intrinsic.Confidence
		return Quote{Price: price, Confidence: conf}, SourceHybrid

	default: // StrategyFallback
		return *market, SourceMarket
	}
}

// DeviationPct computes the market-vs-intrinsic divergence as a signed
// percentage of intrinsic value. Zero intrinsic yields zero: there is no
// meaningful base to deviate from.
func DeviationPct(market, intrinsic decimal.Decimal) float64 {
	if intrinsic.Sign() == 0 {
		return 0
	}
	dev := market.Sub(intrinsic).Div(intrinsic).Mul(decimal.NewFromInt(100))
	f, _ := dev.Float64()
	return f
}

// IsArbitrage reports whether an absolute deviation crosses the threshold,
// both expressed in percent.
func IsArbitrage(deviationPct, thresholdPct float64) bool {
	if deviationPct < 0 {
		deviationPct = -deviationPct
	}
	return deviationPct > thresholdPct
}
