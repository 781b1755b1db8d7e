// Package main is the entry point for the token price engine daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/stxdex/price-engine/business/liquidity"
	"github.com/stxdex/price-engine/business/monitor"
	monitorDI "github.com/stxdex/price-engine/business/monitor/di"
	"github.com/stxdex/price-engine/business/pricing"
	pricingDI "github.com/stxdex/price-engine/business/pricing/di"
	"github.com/stxdex/price-engine/internal/apm"
	"github.com/stxdex/price-engine/internal/config"
	"github.com/stxdex/price-engine/internal/health"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/metrics"
	"github.com/stxdex/price-engine/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	tokenID := flag.String("token", "", "Price a single token, print JSON and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("priced %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *tokenID); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, tokenID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting price engine",
		"version", version,
		"environment", cfg.App.Environment,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}

		provider := apm.ZipkinProvider
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
			provider = apm.OTLPProvider
		}
		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(provider, log))
		log.Info(ctx, "tracing initialized", "provider", string(provider))

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go func() {
			if err := metrics.ServePrometheusMetrics(port); err != nil {
				log.Warn(ctx, "prometheus metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&liquidity.Module{}, // Must be first - provides the liquidity graph
		&pricing.Module{},   // Depends on liquidity for paths and vaults
		&monitor.Module{},   // Depends on pricing for market-wide scans
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	priceService := pricingDI.GetPriceService(mono.Services())

	// One-shot mode: price a single token, print JSON, exit.
	if tokenID != "" {
		data, err := priceService.CalculateTokenPrice(ctx, tokenID)
		if err != nil {
			return fmt.Errorf("failed to price %s: %w", tokenID, err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}

	// Start health check server on port 8081
	healthServer := health.NewServer(8081, version)
	healthServer.RegisterCheck("oracle", func(ctx context.Context) (bool, string) {
		if _, err := pricingDI.GetBTCOracle(mono.Services()).GetBTCPrice(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(context.Background())

	log.Info(ctx, "all modules started, price engine running")

	// Wait for shutdown
	<-ctx.Done()

	log.Info(ctx, "shutting down")
	if cfg.Monitor.Enabled {
		if err := monitorDI.GetMonitor(mono.Services()).Stop(); err != nil {
			log.Error(ctx, "error stopping monitor", "error", err)
		}
	}
	return nil
}
