package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	liqdomain "github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/token"
)

// BTCOracle supplies the reference asset's USD quote. The oracle manages
// its own freshness; callers never assume more than the returned data.
type BTCOracle interface {
	GetBTCPrice(ctx context.Context) (*domain.BTCPrice, error)
}

// RemoveQuote holds the redeemable underlying amounts, in atomic units,
// for a given LP token amount.
type RemoveQuote struct {
	AmountA decimal.Decimal
	AmountB decimal.Decimal
}

// QuoteSource is the read-only remove-liquidity quotation service used by
// the authoritative LP valuation strategy.
type QuoteSource interface {
	RemoveLiquidityQuote(ctx context.Context, vaultID string, lpAmount decimal.Decimal) (*RemoveQuote, error)
}

// PriceCache stores published price records. Writers race benignly: prices
// are idempotently recomputable and TTL-bounded.
type PriceCache interface {
	Get(ctx context.Context, tokenID string) (*domain.TokenPriceData, bool)
	Set(ctx context.Context, tokenID string, data *domain.TokenPriceData, ttl time.Duration)

	// GetBulk returns the bulk snapshot, if present.
	GetBulk(ctx context.Context) (map[string]*domain.TokenPriceData, bool)
	SetBulk(ctx context.Context, data map[string]*domain.TokenPriceData, ttl time.Duration)
	DeleteBulk(ctx context.Context)
}

// LiquidityProvider is the liquidity context surface the pricing engine
// consumes.
type LiquidityProvider interface {
	Graph(ctx context.Context) (*liqdomain.Graph, error)
	PathsToAnchor(ctx context.Context, tokenID string) ([]liqdomain.PricePath, error)
	Vaults(ctx context.Context) ([]liqdomain.Vault, error)
	FindVault(ctx context.Context, contractID string) (*liqdomain.Vault, error)
	Tokens(ctx context.Context) ([]token.Token, error)
}
