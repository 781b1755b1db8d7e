// Package pricing implements the pricing bounded context: the price
// calculation orchestrator, LP intrinsic valuation, and their upstream
// adapters.
package pricing

import (
	"context"

	liquidityDI "github.com/stxdex/price-engine/business/liquidity/di"
	"github.com/stxdex/price-engine/business/pricing/app"
	pricingDI "github.com/stxdex/price-engine/business/pricing/di"
	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/business/pricing/infra/memcache"
	"github.com/stxdex/price-engine/business/pricing/infra/oraclehttp"
	"github.com/stxdex/price-engine/business/pricing/infra/quotehttp"
	"github.com/stxdex/price-engine/internal/config"
	"github.com/stxdex/price-engine/internal/di"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register BTCOracle - private dependency
	di.RegisterToken(c, pricingDI.BTCOracle, func(sr di.ServiceRegistry) app.BTCOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracle, err := oraclehttp.New(oraclehttp.Config{
			BaseURL:        cfg.Oracle.BaseURL,
			StreamURL:      cfg.Oracle.StreamURL,
			RequestTimeout: cfg.Oracle.RequestTimeout,
			CacheTTL:       cfg.Oracle.CacheTTL,
		}, log)
		if err != nil {
			panic("failed to create btc oracle client: " + err.Error())
		}
		return oracle
	})

	// Register QuoteSource - private dependency, nil when disabled
	di.RegisterToken(c, pricingDI.QuoteSource, func(sr di.ServiceRegistry) app.QuoteSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.Quote.Enabled {
			return nil
		}
		source, err := quotehttp.New(quotehttp.Config{
			BaseURL:        cfg.Quote.BaseURL,
			RequestTimeout: cfg.Quote.RequestTimeout,
		}, log)
		if err != nil {
			panic("failed to create quote source client: " + err.Error())
		}
		return source
	})

	// Register LPValuer - private dependency
	di.RegisterToken(c, pricingDI.LPValuer, func(sr di.ServiceRegistry) *app.LPValuer {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewLPValuer(pricingDI.GetQuoteSource(sr), log)
	})

	// Register PriceCache - private dependency
	di.RegisterToken(c, pricingDI.PriceCache, func(sr di.ServiceRegistry) app.PriceCache {
		cfg := sr.Get("config").(*config.Config)
		return memcache.New(cfg.PriceCacheTTL())
	})

	// Register PriceService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewPriceService(app.Config{
			AnchorContractID:      cfg.Pricing.AnchorContractID,
			AnchorSymbol:          cfg.Pricing.AnchorSymbol,
			Stablecoins:           cfg.Pricing.Stablecoins,
			HybridStrategy:        domain.HybridStrategy(cfg.Pricing.HybridStrategy),
			MarketWeight:          cfg.Pricing.MarketWeight,
			ArbitrageThresholdPct: cfg.Pricing.ArbitrageThresholdPct,
			BatchSize:             cfg.Pricing.BatchSize,
			MinBulkEntries:        cfg.Pricing.MinBulkEntries,
			CacheTTL:              cfg.PriceCacheTTL(),
		},
			liquidityDI.GetLiquidityService(sr),
			pricingDI.GetBTCOracle(sr),
			pricingDI.GetLPValuer(sr),
			pricingDI.GetPriceCache(sr),
			log,
		)
		if err != nil {
			panic("failed to create price service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Bring up the oracle push feed when one is configured; HTTP pulls
	// cover for it until (and whenever) the stream is down.
	oracle := pricingDI.GetBTCOracle(mono.Services())
	if streamer, ok := oracle.(interface{ StartStream(context.Context) error }); ok {
		if err := streamer.StartStream(ctx); err != nil {
			log.Warn(ctx, "oracle stream unavailable, relying on HTTP pulls", "error", err)
		}
	}

	log.Info(ctx, "pricing module started")
	return nil
}
