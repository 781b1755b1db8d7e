package app

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	liqdomain "github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/internal/token"
)

// Path weighting parameters. Short, deep, fresh routes dominate the
// weighted average; no surviving route is ever zero-weighted.
const (
	minReliabilityFactor   = 0.01
	minConfidenceFactor    = 0.01
	hopPenaltyExponent     = 1.2
	maxLiquidityBoost      = 3.0
	liquidityBoostScaleUSD = 100_000.0
	recencyFloor           = 0.5
	recencyWindow          = time.Hour
	weightFloor            = 0.001

	// outlierTolerance is the maximum fractional distance from the median
	// ratio a path may sit before it is rejected.
	outlierTolerance = 0.5

	// atomicLiquidityScale normalizes summed atomic reserves into the
	// [0,1] liquidity component of confidence scoring.
	atomicLiquidityScale = 1e14
)

// reconciledPrice is the outcome of multi-path reconciliation: one anchor
// ratio plus the statistics confidence scoring needs.
type reconciledPrice struct {
	Ratio           decimal.Decimal
	PathsUsed       int
	AtomicLiquidity decimal.Decimal
	Variation       float64 // coefficient of variation across retained ratios
	Rejected        int
}

type pathQuote struct {
	path  liqdomain.PricePath
	ratio decimal.Decimal
}

// pathRatio composes per-hop decimal-aware exchange rates into the path's
// anchor ratio. False when any hop yields an invalid rate; the caller
// drops the path and continues.
func pathRatio(p liqdomain.PricePath) (decimal.Decimal, bool) {
	ratio := decimal.NewFromInt(1)
	for i, pool := range p.Pools {
		in, decIn, out, decOut, ok := pool.OrientedReserves(p.Tokens[i].ContractID)
		if !ok {
			return decimal.Zero, false
		}
		rate, ok := token.ExchangeRate(in, decIn, out, decOut)
		if !ok {
			return decimal.Zero, false
		}
		ratio = ratio.Mul(rate)
	}
	if ratio.Sign() <= 0 {
		return decimal.Zero, false
	}
	return ratio, true
}

// pathWeight scores one retained path's contribution to the average.
func pathWeight(p liqdomain.PricePath, now time.Time) float64 {
	rel := math.Max(minReliabilityFactor, p.Reliability)
	conf := math.Max(minConfidenceFactor, p.Confidence)
	w := rel * conf / math.Pow(float64(p.Hops), hopPenaltyExponent)

	depth, _ := p.BottleneckLiquidityUSD.Float64()
	boost := depth / liquidityBoostScaleUSD * maxLiquidityBoost
	if boost > maxLiquidityBoost {
		boost = maxLiquidityBoost
	}
	w *= boost

	age := now.Sub(p.StalestUpdate)
	if age < 0 {
		age = 0
	}
	frac := math.Min(1, float64(age)/float64(recencyWindow))
	w *= 1 - (1-recencyFloor)*frac

	return math.Max(weightFloor, w)
}

// reconcilePaths turns a set of candidate paths into one anchor ratio:
// invalid hops drop their path, outliers beyond half the median are
// rejected, and the survivors are combined by weighted average. When
// rejection empties the set the median itself is used rather than failing.
// False only when no path produced a valid ratio at all.
func reconcilePaths(paths []liqdomain.PricePath, now time.Time) (*reconciledPrice, bool) {
	quotes := make([]pathQuote, 0, len(paths))
	for _, p := range paths {
		if ratio, ok := pathRatio(p); ok {
			quotes = append(quotes, pathQuote{path: p, ratio: ratio})
		}
	}
	if len(quotes) == 0 {
		return nil, false
	}

	sort.Slice(quotes, func(i, j int) bool {
		return quotes[i].ratio.LessThan(quotes[j].ratio)
	})
	median := medianRatio(quotes)

	retained := make([]pathQuote, 0, len(quotes))
	for _, q := range quotes {
		dist := q.ratio.Sub(median).Abs().Div(median)
		if f, _ := dist.Float64(); f <= outlierTolerance {
			retained = append(retained, q)
		}
	}

	if len(retained) == 0 {
		// Extreme spread: every ratio is >50% from the median. Use the
		// median path alone instead of failing the calculation.
		mid := quotes[len(quotes)/2]
		return &reconciledPrice{
			Ratio:           mid.ratio,
			PathsUsed:       1,
			AtomicLiquidity: mid.path.AtomicLiquidity,
			Variation:       0,
			Rejected:        len(quotes) - 1,
		}, true
	}

	weightedSum := decimal.Zero
	totalWeight := decimal.Zero
	atomic := decimal.Zero
	for _, q := range retained {
		w := decimal.NewFromFloat(pathWeight(q.path, now))
		weightedSum = weightedSum.Add(q.ratio.Mul(w))
		totalWeight = totalWeight.Add(w)
		atomic = atomic.Add(q.path.AtomicLiquidity)
	}

	return &reconciledPrice{
		Ratio:           weightedSum.DivRound(totalWeight, 18),
		PathsUsed:       len(retained),
		AtomicLiquidity: atomic,
		Variation:       coefficientOfVariation(retained),
		Rejected:        len(quotes) - len(retained),
	}, true
}

func medianRatio(sorted []pathQuote) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2].ratio
	}
	return sorted[n/2-1].ratio.Add(sorted[n/2].ratio).Div(decimal.NewFromInt(2))
}

func coefficientOfVariation(quotes []pathQuote) float64 {
	if len(quotes) < 2 {
		return 0
	}

	var sum float64
	values := make([]float64, len(quotes))
	for i, q := range quotes {
		values[i], _ = q.ratio.Float64()
		sum += values[i]
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	stddev := math.Sqrt(sq / float64(len(values)))
	return stddev / mean
}

// scoreConfidence combines path consistency, liquidity depth and path
// count, scaled by the oracle's own confidence, clamped to [0,1].
func scoreConfidence(rec *reconciledPrice, oracleConfidence float64) float64 {
	consistency := math.Max(0, 1-rec.Variation)

	depth, _ := rec.AtomicLiquidity.Float64()
	liquidity := math.Min(1, depth/atomicLiquidityScale)

	pathCount := math.Min(1, float64(rec.PathsUsed)/3.0)

	c := (0.4*consistency + 0.4*liquidity + 0.2*pathCount) * oracleConfidence
	return math.Min(1, math.Max(0, c))
}
