package app

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	liqdomain "github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/internal/token"
)

// onePoolPath builds a fully scored single-hop path whose ratio is
// outAtomic/inAtomic (both sides 6 decimals).
func onePoolPath(id string, inAtomic, outAtomic int64, liqUSD int64, age time.Duration) liqdomain.PricePath {
	src := token.Token{ContractID: "SP1.src", Symbol: "SRC", Decimals: 6}
	anchor := token.Token{ContractID: "SM3.sbtc-token", Symbol: "sBTC", Decimals: 6}

	edge := &liqdomain.PoolEdge{
		VaultID:      id,
		TokenA:       src,
		TokenB:       anchor,
		ReservesA:    decimal.NewFromInt(inAtomic),
		ReservesB:    decimal.NewFromInt(outAtomic),
		LiquidityUSD: decimal.NewFromInt(liqUSD),
		UpdatedAt:    time.Now().Add(-age),
	}

	return liqdomain.PricePath{
		Tokens:                 []token.Token{src, anchor},
		Pools:                  []*liqdomain.PoolEdge{edge},
		Hops:                   1,
		Reliability:            0.8,
		Confidence:             0.9,
		TotalLiquidityUSD:      edge.LiquidityUSD,
		BottleneckLiquidityUSD: edge.LiquidityUSD,
		AtomicLiquidity:        edge.AtomicLiquidity(),
		StalestUpdate:          edge.UpdatedAt,
	}
}

func TestPathRatio_MultiHopMixedDecimals(t *testing.T) {
	alex := token.Token{ContractID: "SP1.alex", Symbol: "ALEX", Decimals: 6}
	usda := token.Token{ContractID: "SP2.usda", Symbol: "USDA", Decimals: 6}
	anchor := token.Token{ContractID: "SM3.sbtc-token", Symbol: "sBTC", Decimals: 8}

	// 1 ALEX = 2 USDA, 100000 USDA = 1 sBTC.
	hop1 := &liqdomain.PoolEdge{
		TokenA: alex, TokenB: usda,
		ReservesA: decimal.NewFromInt(1_000_000_000),  // 1000 ALEX
		ReservesB: decimal.NewFromInt(2_000_000_000),  // 2000 USDA
		UpdatedAt: time.Now(),
	}
	hop2 := &liqdomain.PoolEdge{
		TokenA: usda, TokenB: anchor,
		ReservesA: decimal.NewFromInt(100_000_000_000), // 100000 USDA
		ReservesB: decimal.NewFromInt(100_000_000),     // 1 sBTC
		UpdatedAt: time.Now(),
	}

	p := liqdomain.PricePath{
		Tokens: []token.Token{alex, usda, anchor},
		Pools:  []*liqdomain.PoolEdge{hop1, hop2},
		Hops:   2,
	}

	ratio, ok := pathRatio(p)
	if !ok {
		t.Fatal("expected valid ratio")
	}
	// 2 USDA per ALEX x 1e-5 sBTC per USDA = 2e-5.
	want := decimal.RequireFromString("0.00002")
	if !ratio.Equal(want) {
		t.Errorf("ratio = %s, want %s", ratio, want)
	}
}

func TestPathRatio_InvalidHopDropsPath(t *testing.T) {
	src := token.Token{ContractID: "SP1.src", Symbol: "SRC", Decimals: 6}
	anchor := token.Token{ContractID: "SM3.sbtc-token", Symbol: "sBTC", Decimals: 6}

	edge := &liqdomain.PoolEdge{
		TokenA: src, TokenB: anchor,
		ReservesA: decimal.Zero, // drained
		ReservesB: decimal.NewFromInt(1000),
	}
	p := liqdomain.PricePath{
		Tokens: []token.Token{src, anchor},
		Pools:  []*liqdomain.PoolEdge{edge},
		Hops:   1,
	}

	if _, ok := pathRatio(p); ok {
		t.Error("expected drained pool to invalidate the path")
	}
}

func TestReconcilePaths_OutlierRejection(t *testing.T) {
	// Ratios 1.0, 1.02, 1.01 and an outlier at 5.0, > 50% from the median.
	paths := []liqdomain.PricePath{
		onePoolPath("p1", 1_000_000, 1_000_000, 50_000, 0),
		onePoolPath("p2", 1_000_000, 1_020_000, 50_000, 0),
		onePoolPath("p3", 1_000_000, 1_010_000, 50_000, 0),
		onePoolPath("p4", 1_000_000, 5_000_000, 50_000, 0),
	}

	rec, ok := reconcilePaths(paths, time.Now())
	if !ok {
		t.Fatal("expected reconciliation to succeed")
	}
	if rec.PathsUsed != 3 {
		t.Errorf("PathsUsed = %d, want 3 (outlier excluded)", rec.PathsUsed)
	}
	if rec.Rejected != 1 {
		t.Errorf("Rejected = %d, want 1", rec.Rejected)
	}

	lo := decimal.RequireFromString("1.0")
	hi := decimal.RequireFromString("1.02")
	if rec.Ratio.LessThan(lo) || rec.Ratio.GreaterThan(hi) {
		t.Errorf("ratio = %s, want within [%s, %s]", rec.Ratio, lo, hi)
	}
}

func TestReconcilePaths_MedianFallbackWhenAllOutliers(t *testing.T) {
	// Two ratios so far apart that both are >50% from their median.
	paths := []liqdomain.PricePath{
		onePoolPath("p1", 1_000_000, 1_000_000, 50_000, 0),
		onePoolPath("p2", 1_000_000, 10_000_000, 50_000, 0),
	}

	rec, ok := reconcilePaths(paths, time.Now())
	if !ok {
		t.Fatal("expected median fallback, not failure")
	}
	if rec.PathsUsed != 1 {
		t.Errorf("PathsUsed = %d, want 1 (median path only)", rec.PathsUsed)
	}
	if rec.Variation != 0 {
		t.Errorf("Variation = %f, want 0 for a single path", rec.Variation)
	}
}

func TestReconcilePaths_AllPathsInvalid(t *testing.T) {
	src := token.Token{ContractID: "SP1.src", Symbol: "SRC", Decimals: 6}
	anchor := token.Token{ContractID: "SM3.sbtc-token", Symbol: "sBTC", Decimals: 6}
	edge := &liqdomain.PoolEdge{
		TokenA: src, TokenB: anchor,
		ReservesA: decimal.Zero,
		ReservesB: decimal.Zero,
	}
	paths := []liqdomain.PricePath{{
		Tokens: []token.Token{src, anchor},
		Pools:  []*liqdomain.PoolEdge{edge},
		Hops:   1,
	}}

	if _, ok := reconcilePaths(paths, time.Now()); ok {
		t.Error("expected failure when no path has a valid rate")
	}
}

func TestPathWeight_PrefersShortDeepFresh(t *testing.T) {
	now := time.Now()

	deep := onePoolPath("deep", 1_000_000, 1_000_000, 100_000, 0)
	thin := onePoolPath("thin", 1_000_000, 1_000_000, 1_000, 0)
	stale := onePoolPath("stale", 1_000_000, 1_000_000, 100_000, 2*time.Hour)

	long := deep
	long.Hops = 3

	wDeep := pathWeight(deep, now)
	if wThin := pathWeight(thin, now); wThin >= wDeep {
		t.Errorf("thin pool weight %f >= deep pool weight %f", wThin, wDeep)
	}
	if wStale := pathWeight(stale, now); wStale >= wDeep {
		t.Errorf("stale pool weight %f >= fresh pool weight %f", wStale, wDeep)
	}
	if wLong := pathWeight(long, now); wLong >= wDeep {
		t.Errorf("3-hop weight %f >= 1-hop weight %f", wLong, wDeep)
	}

	// No path is ever zero-weighted.
	worthless := onePoolPath("w", 1_000_000, 1_000_000, 0, 24*time.Hour)
	worthless.Reliability = 0
	worthless.Confidence = 0
	if w := pathWeight(worthless, now); w < weightFloor {
		t.Errorf("weight %f below floor %f", w, weightFloor)
	}
}

func TestScoreConfidence(t *testing.T) {
	tests := []struct {
		name   string
		rec    reconciledPrice
		oracle float64
		min    float64
		max    float64
	}{
		{
			"perfect inputs saturate",
			reconciledPrice{PathsUsed: 3, AtomicLiquidity: decimal.New(1, 14), Variation: 0},
			1.0, 0.999, 1.0,
		},
		{
			"oracle confidence scales the score",
			reconciledPrice{PathsUsed: 3, AtomicLiquidity: decimal.New(1, 14), Variation: 0},
			0.5, 0.499, 0.501,
		},
		{
			"high variation erodes consistency",
			reconciledPrice{PathsUsed: 3, AtomicLiquidity: decimal.New(1, 14), Variation: 2.0},
			1.0, 0.599, 0.601,
		},
		{
			"single thin path scores low",
			reconciledPrice{PathsUsed: 1, AtomicLiquidity: decimal.NewFromInt(1), Variation: 0},
			1.0, 0.0, 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreConfidence(&tt.rec, tt.oracle)
			if got < tt.min || got > tt.max {
				t.Errorf("confidence = %f, want within [%f, %f]", got, tt.min, tt.max)
			}
			if got < 0 || got > 1 {
				t.Errorf("confidence %f outside [0,1]", got)
			}
		})
	}
}
