// Package domain holds the liquidity graph model: tokens as nodes, pools as
// weighted edges, and anchor-path discovery.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stxdex/price-engine/internal/token"
)

// Vault types recognized by the registry.
const (
	VaultTypePool = "POOL"
)

// Vault is a registry snapshot of one pool contract: both constituent
// tokens, their current atomic reserves, and the pool's own LP token
// precision. Snapshots are replaced wholesale on refresh, never mutated.
type Vault struct {
	ContractID   string
	Type         string
	TokenA       token.Token
	TokenB       token.Token
	ReservesA    decimal.Decimal // atomic units of TokenA
	ReservesB    decimal.Decimal // atomic units of TokenB
	LPDecimals   int32
	FeePct       decimal.Decimal
	LiquidityUSD decimal.Decimal
	UpdatedAt    time.Time
}

// IsPool reports whether the vault is a pool-type entry, i.e. whether its
// contract ID identifies an LP token.
func (v Vault) IsPool() bool {
	return v.Type == VaultTypePool
}

// HasReserves reports whether both sides carry positive reserves. Pools
// with a drained side cannot price anything.
func (v Vault) HasReserves() bool {
	return v.ReservesA.Sign() > 0 && v.ReservesB.Sign() > 0
}
