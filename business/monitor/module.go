// Package monitor implements the arbitrage monitor bounded context: a
// periodic market-wide repricing loop that reports LP tokens whose market
// price diverges from intrinsic value.
package monitor

import (
	"context"

	"github.com/stxdex/price-engine/business/monitor/app"
	monitorDI "github.com/stxdex/price-engine/business/monitor/di"
	"github.com/stxdex/price-engine/business/monitor/infra"
	pricingDI "github.com/stxdex/price-engine/business/pricing/di"
	"github.com/stxdex/price-engine/internal/config"
	"github.com/stxdex/price-engine/internal/di"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/monolith"
)

// Module implements the monitor bounded context.
type Module struct{}

// RegisterServices registers all monitor services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Reporter - private dependency
	di.RegisterToken(c, monitorDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		return infra.NewConsoleReporter()
	})

	// Register Monitor (public - exposed to other modules)
	di.RegisterToken(c, monitorDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		mon, err := app.NewMonitor(app.Config{
			Interval:           cfg.Monitor.Interval,
			SignalThresholdPct: cfg.Monitor.SignalThresholdPct,
		},
			pricingDI.GetPriceService(sr),
			monitorDI.GetReporter(sr),
			log,
		)
		if err != nil {
			panic("failed to create monitor: " + err.Error())
		}
		return mon
	})

	return nil
}

// Startup initializes the monitor module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if !mono.Config().Monitor.Enabled {
		log.Info(ctx, "monitor disabled, skipping")
		return nil
	}

	mon := monitorDI.GetMonitor(mono.Services())
	if err := mon.Start(ctx); err != nil {
		return err
	}

	log.Info(ctx, "monitor module started")
	return nil
}
