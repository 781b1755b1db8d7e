package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stxdex/price-engine/internal/token"
)

// Path scoring parameters. Reliability prefers short routes through deep
// pools; confidence decays with the staleness of the oldest pool on the
// route.
const (
	// bottleneckScaleUSD is the pool depth at which the liquidity factor
	// saturates.
	bottleneckScaleUSD = 100_000

	// staleWindow is the age at which a pool's recency factor bottoms out.
	staleWindow = time.Hour

	// minRecency is the confidence floor for fully stale pools.
	minRecency = 0.3
)

// PricePath is one route from a source token to the anchor. It is a value
// object produced by path search; it is scored and ranked, never mutated.
type PricePath struct {
	// Tokens holds the route's token sequence, source first, anchor last.
	Tokens []token.Token

	// Pools connect consecutive tokens; len(Pools) == len(Tokens)-1.
	Pools []*PoolEdge

	Hops                   int
	Reliability            float64
	Confidence             float64
	TotalLiquidityUSD      decimal.Decimal
	BottleneckLiquidityUSD decimal.Decimal

	// AtomicLiquidity is the summed atomic reserves across the route's
	// pools, used for depth-normalized confidence scoring.
	AtomicLiquidity decimal.Decimal

	// StalestUpdate is the oldest pool refresh on the route.
	StalestUpdate time.Time
}

// Source returns the route's starting token.
func (p PricePath) Source() token.Token {
	return p.Tokens[0]
}

// PathsToAnchor enumerates distinct routes from tokenID to the anchor with
// a bounded-depth search, scoring each and returning at most maxPaths of
// the best. A token absent from the graph or disconnected from the anchor
// yields an empty slice, never an error.
func (g *Graph) PathsToAnchor(tokenID string, maxHops, maxPaths int) []PricePath {
	if _, ok := g.nodes[tokenID]; !ok {
		return nil
	}
	if tokenID == g.anchorID || maxHops < 1 {
		return nil
	}

	var found []PricePath
	visited := map[string]bool{tokenID: true}
	start := []token.Token{g.nodes[tokenID]}

	g.walk(tokenID, start, nil, visited, maxHops, &found)

	now := time.Now()
	for i := range found {
		scorePath(&found[i], now)
	}

	sort.Slice(found, func(i, j int) bool {
		si := found[i].Reliability * found[i].Confidence
		sj := found[j].Reliability * found[j].Confidence
		if si != sj {
			return si > sj
		}
		return found[i].Hops < found[j].Hops
	})

	if maxPaths > 0 && len(found) > maxPaths {
		found = found[:maxPaths]
	}
	return found
}

func (g *Graph) walk(currentID string, tokens []token.Token, pools []*PoolEdge, visited map[string]bool, hopsLeft int, found *[]PricePath) {
	if hopsLeft == 0 {
		return
	}

	for _, edge := range g.adjacent[currentID] {
		next, ok := edge.Other(currentID)
		if !ok || visited[next.ContractID] {
			continue
		}

		routeTokens := append(append([]token.Token{}, tokens...), next)
		routePools := append(append([]*PoolEdge{}, pools...), edge)

		if next.ContractID == g.anchorID {
			*found = append(*found, PricePath{
				Tokens: routeTokens,
				Pools:  routePools,
				Hops:   len(routePools),
			})
			continue
		}

		visited[next.ContractID] = true
		g.walk(next.ContractID, routeTokens, routePools, visited, hopsLeft-1, found)
		visited[next.ContractID] = false
	}
}

func scorePath(p *PricePath, now time.Time) {
	total := decimal.Zero
	atomic := decimal.Zero
	bottleneck := decimal.Zero
	oldest := now

	for i, pool := range p.Pools {
		total = total.Add(pool.LiquidityUSD)
		atomic = atomic.Add(pool.AtomicLiquidity())
		if i == 0 || pool.LiquidityUSD.LessThan(bottleneck) {
			bottleneck = pool.LiquidityUSD
		}
		if pool.UpdatedAt.Before(oldest) {
			oldest = pool.UpdatedAt
		}
	}

	p.TotalLiquidityUSD = total
	p.AtomicLiquidity = atomic
	p.BottleneckLiquidityUSD = bottleneck
	p.StalestUpdate = oldest

	// Shorter routes through deeper bottleneck pools are more reliable.
	depth, _ := bottleneck.Float64()
	liqFactor := depth / bottleneckScaleUSD
	if liqFactor > 1 {
		liqFactor = 1
	}
	if liqFactor < 0 {
		liqFactor = 0
	}
	p.Reliability = (1.0 / float64(p.Hops)) * (0.3 + 0.7*liqFactor)

	// Confidence tracks the stalest pool on the route, decaying linearly
	// to minRecency over staleWindow.
	age := now.Sub(oldest)
	if age < 0 {
		age = 0
	}
	frac := float64(age) / float64(staleWindow)
	if frac > 1 {
		frac = 1
	}
	p.Confidence = 1 - (1-minRecency)*frac
}
