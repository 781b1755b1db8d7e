package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stxdex/price-engine/internal/token"
)

const anchorID = "SM3.sbtc-token"

func tok(id, symbol string) token.Token {
	return token.Token{ContractID: id, Symbol: symbol, Decimals: 6}
}

func pool(id string, a, b token.Token, reservesA, reservesB int64, liqUSD int64, age time.Duration) Vault {
	return Vault{
		ContractID:   id,
		Type:         VaultTypePool,
		TokenA:       a,
		TokenB:       b,
		ReservesA:    decimal.NewFromInt(reservesA),
		ReservesB:    decimal.NewFromInt(reservesB),
		LPDecimals:   6,
		LiquidityUSD: decimal.NewFromInt(liqUSD),
		UpdatedAt:    time.Now().Add(-age),
	}
}

func TestNewGraph_SkipsDrainedPools(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	alex := tok("SP1.alex", "ALEX")

	vaults := []Vault{
		pool("SP1.pool-drained", alex, anchor, 0, 1000, 500, 0),
		pool("SP1.pool-ok", alex, anchor, 1000, 1000, 500, 0),
	}

	g := NewGraph(anchorID, vaults)

	if got := len(g.Edges(alex.ContractID)); got != 1 {
		t.Fatalf("edges for ALEX = %d, want 1 (drained pool skipped)", got)
	}
}

func TestGraph_NodeAndTokens(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	alex := tok("SP1.alex", "ALEX")

	g := NewGraph(anchorID, []Vault{
		pool("SP1.pool", alex, anchor, 1000, 1000, 500, 0),
	})

	if _, ok := g.Node("SP1.alex"); !ok {
		t.Error("expected ALEX node")
	}
	if _, ok := g.Node("SP1.unknown"); ok {
		t.Error("unexpected node for unknown token")
	}
	if got := g.NodeCount(); got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
	if got := len(g.Tokens()); got != 2 {
		t.Errorf("len(Tokens) = %d, want 2", got)
	}
}

func TestPathsToAnchor_DirectAndMultiHop(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	alex := tok("SP1.alex", "ALEX")
	usda := tok("SP2.usda", "USDA")

	g := NewGraph(anchorID, []Vault{
		pool("SP1.alex-sbtc", alex, anchor, 1_000_000, 50, 80_000, 0),
		pool("SP1.alex-usda", alex, usda, 1_000_000, 2_000_000, 120_000, 0),
		pool("SP2.usda-sbtc", usda, anchor, 2_000_000, 100, 150_000, 0),
	})

	paths := g.PathsToAnchor(alex.ContractID, 4, 10)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}

	for i, p := range paths {
		if p.Tokens[0].ContractID != alex.ContractID {
			t.Errorf("path %d does not start at source", i)
		}
		if p.Tokens[len(p.Tokens)-1].ContractID != anchorID {
			t.Errorf("path %d does not end at anchor", i)
		}
		if len(p.Pools) != len(p.Tokens)-1 {
			t.Errorf("path %d pool/token count mismatch", i)
		}
		for h, pe := range p.Pools {
			if _, ok := pe.Other(p.Tokens[h].ContractID); !ok {
				t.Errorf("path %d hop %d pool does not connect consecutive tokens", i, h)
			}
		}
	}
}

func TestPathsToAnchor_Disconnected(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	alex := tok("SP1.alex", "ALEX")
	island := tok("SP3.island", "ISL")
	other := tok("SP3.other", "OTH")

	g := NewGraph(anchorID, []Vault{
		pool("SP1.alex-sbtc", alex, anchor, 1000, 1000, 500, 0),
		pool("SP3.island-other", island, other, 1000, 1000, 500, 0),
	})

	if paths := g.PathsToAnchor(island.ContractID, 4, 10); len(paths) != 0 {
		t.Errorf("disconnected token produced %d paths, want 0", len(paths))
	}
	if paths := g.PathsToAnchor("SP9.never-seen", 4, 10); len(paths) != 0 {
		t.Errorf("unknown token produced %d paths, want 0", len(paths))
	}
	if paths := g.PathsToAnchor(anchorID, 4, 10); len(paths) != 0 {
		t.Errorf("anchor itself produced %d paths, want 0", len(paths))
	}
}

func TestPathsToAnchor_DepthBound(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	// Chain: t0 - t1 - t2 - t3 - t4 - anchor (5 hops).
	chain := make([]token.Token, 5)
	for i := range chain {
		chain[i] = tok(fmt.Sprintf("SP1.chain-%d", i), fmt.Sprintf("C%d", i))
	}

	var vaults []Vault
	for i := 0; i < len(chain)-1; i++ {
		vaults = append(vaults, pool(fmt.Sprintf("SP1.pool-%d", i), chain[i], chain[i+1], 1000, 1000, 500, 0))
	}
	vaults = append(vaults, pool("SP1.pool-last", chain[len(chain)-1], anchor, 1000, 1000, 500, 0))

	g := NewGraph(anchorID, vaults)

	if paths := g.PathsToAnchor(chain[0].ContractID, 4, 10); len(paths) != 0 {
		t.Errorf("5-hop route found with maxHops=4: %d paths", len(paths))
	}
	if paths := g.PathsToAnchor(chain[0].ContractID, 5, 10); len(paths) != 1 {
		t.Errorf("5-hop route with maxHops=5: %d paths, want 1", len(paths))
	}
}

func TestPathsToAnchor_RankingAndTruncation(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	src := tok("SP1.src", "SRC")

	var vaults []Vault
	// One deep direct pool and several thin intermediaries.
	vaults = append(vaults, pool("SP1.deep", src, anchor, 1_000_000, 50, 100_000, 0))
	for i := 0; i < 12; i++ {
		mid := tok(fmt.Sprintf("SP2.mid-%d", i), fmt.Sprintf("M%d", i))
		vaults = append(vaults,
			pool(fmt.Sprintf("SP2.src-mid-%d", i), src, mid, 1000, 1000, 1_000, 30*time.Minute),
			pool(fmt.Sprintf("SP2.mid-sbtc-%d", i), mid, anchor, 1000, 1000, 1_000, 30*time.Minute),
		)
	}

	g := NewGraph(anchorID, vaults)

	paths := g.PathsToAnchor(src.ContractID, 4, 10)
	if len(paths) != 10 {
		t.Fatalf("len(paths) = %d, want 10 (truncated)", len(paths))
	}

	// The fresh, deep, single-hop route must rank first.
	best := paths[0]
	if best.Hops != 1 || best.Pools[0].VaultID != "SP1.deep" {
		t.Errorf("best path = %s (%d hops), want the direct deep pool", best.Pools[0].VaultID, best.Hops)
	}
	for i, p := range paths {
		if p.Reliability <= 0 || p.Confidence <= 0 {
			t.Errorf("path %d has non-positive scores: reliability=%f confidence=%f", i, p.Reliability, p.Confidence)
		}
		if p.Confidence > 1 {
			t.Errorf("path %d confidence %f > 1", i, p.Confidence)
		}
	}
}

func TestScorePath_RecencyDecay(t *testing.T) {
	anchor := tok(anchorID, "sBTC")
	src := tok("SP1.src", "SRC")

	fresh := NewGraph(anchorID, []Vault{pool("SP1.fresh", src, anchor, 1000, 1000, 500, 0)})
	stale := NewGraph(anchorID, []Vault{pool("SP1.stale", src, anchor, 1000, 1000, 500, 2*time.Hour)})

	freshPaths := fresh.PathsToAnchor(src.ContractID, 4, 10)
	stalePaths := stale.PathsToAnchor(src.ContractID, 4, 10)
	if len(freshPaths) != 1 || len(stalePaths) != 1 {
		t.Fatal("expected one path each")
	}

	if freshPaths[0].Confidence < 0.99 {
		t.Errorf("fresh pool confidence = %f, want ~1", freshPaths[0].Confidence)
	}
	if got := stalePaths[0].Confidence; got != minRecency {
		t.Errorf("stale pool confidence = %f, want floor %f", got, minRecency)
	}
}
