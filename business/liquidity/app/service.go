// Package app implements the liquidity context's application services.
package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/cache"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/token"
)

const (
	tracerName = "liquidity-service"
	meterName  = "liquidity-service"

	graphCacheKey  = "graph"
	vaultsCacheKey = "vaults"
	tokensCacheKey = "tokens"
)

// Config holds liquidity service parameters.
type Config struct {
	AnchorContractID string
	MaxPathHops      int
	MaxPaths         int

	// CacheTTL bounds how long a graph snapshot is reused across requests.
	CacheTTL time.Duration
}

// serviceMetrics holds OTEL metric instruments.
type serviceMetrics struct {
	graphBuilds metric.Int64Counter
	graphNodes  metric.Int64Gauge
	pathsFound  metric.Int64Histogram
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// LiquidityService builds liquidity graphs from registry snapshots and
// answers path queries. Graph builds are memoized through a short TTL so
// a burst of price requests shares one snapshot.
type LiquidityService struct {
	config   Config
	registry VaultRegistry
	logger   logger.LoggerInterface

	graphCache *cache.Cache[string, *domain.Graph]
	vaultCache *cache.Cache[string, []domain.Vault]
	tokenCache *cache.Cache[string, []token.Token]

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewLiquidityService creates the service.
func NewLiquidityService(cfg Config, registry VaultRegistry, log logger.LoggerInterface) (*LiquidityService, error) {
	s := &LiquidityService{
		config:     cfg,
		registry:   registry,
		logger:     log,
		graphCache: cache.New[string, *domain.Graph](time.Minute),
		vaultCache: cache.New[string, []domain.Vault](time.Minute),
		tokenCache: cache.New[string, []token.Token](time.Minute),
		tracer:     otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *LiquidityService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.graphBuilds, err = meter.Int64Counter(
		"liquidity_graph_builds_total",
		metric.WithDescription("Total liquidity graph builds from registry snapshots"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return err
	}

	s.metrics.graphNodes, err = meter.Int64Gauge(
		"liquidity_graph_nodes",
		metric.WithDescription("Token count in the most recent liquidity graph"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return err
	}

	s.metrics.pathsFound, err = meter.Int64Histogram(
		"liquidity_paths_found",
		metric.WithDescription("Anchor paths found per query"),
		metric.WithUnit("{path}"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheHits, err = meter.Int64Counter(
		"liquidity_cache_hits_total",
		metric.WithDescription("Graph/vault snapshot cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheMisses, err = meter.Int64Counter(
		"liquidity_cache_misses_total",
		metric.WithDescription("Graph/vault snapshot cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// Vaults returns the current vault snapshot, memoized through the
// calculation-cache TTL.
func (s *LiquidityService) Vaults(ctx context.Context) ([]domain.Vault, error) {
	if vaults, ok := s.vaultCache.Get(ctx, vaultsCacheKey); ok {
		s.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key", vaultsCacheKey)))
		return vaults, nil
	}
	s.metrics.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("key", vaultsCacheKey)))

	ctx, span := s.tracer.Start(ctx, "LiquidityService.Vaults")
	defer span.End()

	vaults, err := s.registry.ListVaults(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRegistryUnavailable, apperror.WithCause(err))
	}

	span.SetAttributes(attribute.Int("vaults", len(vaults)))
	s.vaultCache.Set(ctx, vaultsCacheKey, vaults, s.config.CacheTTL)
	return vaults, nil
}

// Graph returns the liquidity graph for the current snapshot, building it
// on cache miss. Concurrent misses may build twice; last writer wins and
// both results are equivalent.
func (s *LiquidityService) Graph(ctx context.Context) (*domain.Graph, error) {
	if g, ok := s.graphCache.Get(ctx, graphCacheKey); ok {
		s.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key", graphCacheKey)))
		return g, nil
	}
	s.metrics.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("key", graphCacheKey)))

	ctx, span := s.tracer.Start(ctx, "LiquidityService.Graph")
	defer span.End()

	vaults, err := s.Vaults(ctx)
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph(s.config.AnchorContractID, vaults)

	s.metrics.graphBuilds.Add(ctx, 1)
	s.metrics.graphNodes.Record(ctx, int64(g.NodeCount()))
	span.SetAttributes(
		attribute.Int("nodes", g.NodeCount()),
		attribute.Int("vaults", len(vaults)),
	)
	s.logger.Debug(ctx, "liquidity graph built", "nodes", g.NodeCount(), "vaults", len(vaults))

	s.graphCache.Set(ctx, graphCacheKey, g, s.config.CacheTTL)
	return g, nil
}

// PathsToAnchor returns scored routes from tokenID to the anchor. An empty
// slice means the token is connected to nothing that reaches the anchor;
// the caller decides whether that is an error.
func (s *LiquidityService) PathsToAnchor(ctx context.Context, tokenID string) ([]domain.PricePath, error) {
	ctx, span := s.tracer.Start(ctx, "LiquidityService.PathsToAnchor",
		trace.WithAttributes(attribute.String("token", tokenID)))
	defer span.End()

	g, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}

	paths := g.PathsToAnchor(tokenID, s.config.MaxPathHops, s.config.MaxPaths)

	s.metrics.pathsFound.Record(ctx, int64(len(paths)),
		metric.WithAttributes(attribute.String("token", tokenID)))
	span.SetAttributes(attribute.Int("paths", len(paths)))

	return paths, nil
}

// FindVault looks a pool contract up in the current snapshot.
func (s *LiquidityService) FindVault(ctx context.Context, contractID string) (*domain.Vault, error) {
	vaults, err := s.Vaults(ctx)
	if err != nil {
		return nil, err
	}
	for i := range vaults {
		if vaults[i].ContractID == contractID {
			return &vaults[i], nil
		}
	}
	return nil, apperror.New(apperror.CodeVaultNotFound, apperror.WithContext(contractID))
}

// Tokens returns every token known to the registry, memoized like the
// vault snapshot. Falls back to the graph's node set when the registry's
// token listing fails but a vault snapshot is available.
func (s *LiquidityService) Tokens(ctx context.Context) ([]token.Token, error) {
	if tokens, ok := s.tokenCache.Get(ctx, tokensCacheKey); ok {
		return tokens, nil
	}

	tokens, err := s.registry.ListVaultTokens(ctx)
	if err != nil {
		g, gerr := s.Graph(ctx)
		if gerr != nil {
			return nil, apperror.New(apperror.CodeRegistryUnavailable, apperror.WithCause(err))
		}
		s.logger.Warn(ctx, "token listing failed, using graph nodes", "error", err)
		tokens = g.Tokens()
	}

	s.tokenCache.Set(ctx, tokensCacheKey, tokens, s.config.CacheTTL)
	return tokens, nil
}

// Close releases the service's cache janitors.
func (s *LiquidityService) Close() {
	s.graphCache.Stop()
	s.vaultCache.Stop()
	s.tokenCache.Stop()
}
