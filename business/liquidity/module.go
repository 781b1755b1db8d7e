// Package liquidity implements the liquidity bounded context: registry
// snapshots, the liquidity graph, and anchor-path discovery.
package liquidity

import (
	"context"

	"github.com/stxdex/price-engine/business/liquidity/app"
	liquidityDI "github.com/stxdex/price-engine/business/liquidity/di"
	"github.com/stxdex/price-engine/business/liquidity/infra/registryhttp"
	"github.com/stxdex/price-engine/internal/config"
	"github.com/stxdex/price-engine/internal/di"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/monolith"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register VaultRegistry (HTTP adapter) - private dependency
	di.RegisterToken(c, liquidityDI.VaultRegistry, func(sr di.ServiceRegistry) app.VaultRegistry {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		registry, err := registryhttp.New(registryhttp.Config{
			BaseURL:           cfg.Registry.BaseURL,
			RequestTimeout:    cfg.Registry.RequestTimeout,
			RequestsPerMinute: cfg.Registry.RequestsPerMinute,
		}, log)
		if err != nil {
			panic("failed to create vault registry client: " + err.Error())
		}
		return registry
	})

	// Register LiquidityService (public - exposed to other modules)
	di.RegisterToken(c, liquidityDI.LiquidityService, func(sr di.ServiceRegistry) *app.LiquidityService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := liquidityDI.GetVaultRegistry(sr)

		svc, err := app.NewLiquidityService(app.Config{
			AnchorContractID: cfg.Pricing.AnchorContractID,
			MaxPathHops:      cfg.Pricing.MaxPathHops,
			MaxPaths:         cfg.Pricing.MaxPaths,
			CacheTTL:         cfg.CalcCacheTTL(),
		}, registry, log)
		if err != nil {
			panic("failed to create liquidity service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the liquidity module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Warm the vault snapshot so the first price request does not pay for
	// the initial registry round trip. Failure is tolerated; the snapshot
	// is fetched lazily on demand.
	svc := liquidityDI.GetLiquidityService(mono.Services())
	if _, err := svc.Vaults(ctx); err != nil {
		log.Warn(ctx, "initial vault snapshot failed, will fetch lazily", "error", err)
	}

	log.Info(ctx, "liquidity module started")
	return nil
}
