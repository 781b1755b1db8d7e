package app

import (
	"context"

	"github.com/stxdex/price-engine/business/monitor/domain"
	pricingDomain "github.com/stxdex/price-engine/business/pricing/domain"
)

// PriceScanner produces a fresh price for every registered token.
type PriceScanner interface {
	WarmCache(ctx context.Context) (map[string]*pricingDomain.TokenPriceData, error)
}

// Reporter publishes detected signals.
type Reporter interface {
	Start(ctx context.Context) error
	Report(signal *domain.Signal)
	Stop() error
}
