package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stxdex/price-engine/internal/token"
)

// PoolEdge is one pool viewed as a graph edge between its two tokens.
// Traversable in both directions; a rebuild replaces edges wholesale.
type PoolEdge struct {
	VaultID      string
	TokenA       token.Token
	TokenB       token.Token
	ReservesA    decimal.Decimal
	ReservesB    decimal.Decimal
	FeePct       decimal.Decimal
	LiquidityUSD decimal.Decimal
	UpdatedAt    time.Time
}

// Other returns the token on the opposite side of fromID, and false when
// fromID is not an endpoint of this edge.
func (e *PoolEdge) Other(fromID string) (token.Token, bool) {
	switch fromID {
	case e.TokenA.ContractID:
		return e.TokenB, true
	case e.TokenB.ContractID:
		return e.TokenA, true
	}
	return token.Token{}, false
}

// OrientedReserves returns the edge's reserves ordered from fromID's side to
// the opposite side, with each side's decimal count. False when fromID is
// not an endpoint.
func (e *PoolEdge) OrientedReserves(fromID string) (in decimal.Decimal, decIn int32, out decimal.Decimal, decOut int32, ok bool) {
	switch fromID {
	case e.TokenA.ContractID:
		return e.ReservesA, e.TokenA.Decimals, e.ReservesB, e.TokenB.Decimals, true
	case e.TokenB.ContractID:
		return e.ReservesB, e.TokenB.Decimals, e.ReservesA, e.TokenA.Decimals, true
	}
	return decimal.Zero, 0, decimal.Zero, 0, false
}

// AtomicLiquidity is the sum of both atomic reserves. A coarse depth
// measure used by confidence scoring, not a USD value.
func (e *PoolEdge) AtomicLiquidity() decimal.Decimal {
	return e.ReservesA.Add(e.ReservesB)
}

// Graph is the in-memory liquidity graph for one registry snapshot.
// It is built once from a vault list and read concurrently; it is never
// mutated after construction.
type Graph struct {
	anchorID string
	nodes    map[string]token.Token
	adjacent map[string][]*PoolEdge
}

// NewGraph builds a graph from a vault snapshot. Vaults without positive
// reserves on both sides are skipped: they cannot contribute a rate.
func NewGraph(anchorID string, vaults []Vault) *Graph {
	g := &Graph{
		anchorID: anchorID,
		nodes:    make(map[string]token.Token),
		adjacent: make(map[string][]*PoolEdge),
	}

	for _, v := range vaults {
		if !v.HasReserves() {
			continue
		}

		edge := &PoolEdge{
			VaultID:      v.ContractID,
			TokenA:       v.TokenA,
			TokenB:       v.TokenB,
			ReservesA:    v.ReservesA,
			ReservesB:    v.ReservesB,
			FeePct:       v.FeePct,
			LiquidityUSD: v.LiquidityUSD,
			UpdatedAt:    v.UpdatedAt,
		}

		g.addNode(v.TokenA)
		g.addNode(v.TokenB)
		g.adjacent[v.TokenA.ContractID] = append(g.adjacent[v.TokenA.ContractID], edge)
		g.adjacent[v.TokenB.ContractID] = append(g.adjacent[v.TokenB.ContractID], edge)
	}

	return g
}

func (g *Graph) addNode(t token.Token) {
	existing, ok := g.nodes[t.ContractID]
	if !ok {
		g.nodes[t.ContractID] = t
		return
	}
	// Prefer the entry that carries metadata when snapshots disagree.
	if existing.Symbol == "" && t.Symbol != "" {
		g.nodes[t.ContractID] = t
	}
}

// AnchorID returns the reference asset's contract ID.
func (g *Graph) AnchorID() string {
	return g.anchorID
}

// Node returns the token registered under id.
func (g *Graph) Node(id string) (token.Token, bool) {
	t, ok := g.nodes[id]
	return t, ok
}

// Tokens returns every token in the graph, in no particular order.
func (g *Graph) Tokens() []token.Token {
	out := make([]token.Token, 0, len(g.nodes))
	for _, t := range g.nodes {
		out = append(out, t)
	}
	return out
}

// DecimalsMap returns a contract-ID keyed metadata map for decimal lookups.
func (g *Graph) DecimalsMap() map[string]token.Token {
	out := make(map[string]token.Token, len(g.nodes))
	for id, t := range g.nodes {
		out[id] = t
	}
	return out
}

// Edges returns the pools attached to the given token.
func (g *Graph) Edges(tokenID string) []*PoolEdge {
	return g.adjacent[tokenID]
}

// NodeCount returns the number of distinct tokens in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}
