// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/stxdex/price-engine/business/pricing/app"
	"github.com/stxdex/price-engine/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("pricing.PriceService")
)

// Private dependency tokens - internal to the pricing module
var (
	BTCOracle   = di.NewToken[app.BTCOracle]("pricing:btcOracle")
	QuoteSource = di.NewToken[app.QuoteSource]("pricing:quoteSource")
	PriceCache  = di.NewToken[app.PriceCache]("pricing:priceCache")
	LPValuer    = di.NewToken[*app.LPValuer]("pricing:lpValuer")
)

// GetPriceService resolves the public price service.
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

// GetBTCOracle resolves the oracle port.
func GetBTCOracle(c di.ServiceRegistry) app.BTCOracle {
	return di.GetToken(c, BTCOracle)
}

// GetQuoteSource resolves the quote source port.
func GetQuoteSource(c di.ServiceRegistry) app.QuoteSource {
	return di.GetToken(c, QuoteSource)
}

// GetPriceCache resolves the price cache port.
func GetPriceCache(c di.ServiceRegistry) app.PriceCache {
	return di.GetToken(c, PriceCache)
}

// GetLPValuer resolves the LP valuer.
func GetLPValuer(c di.ServiceRegistry) *app.LPValuer {
	return di.GetToken(c, LPValuer)
}
