// Package app implements the pricing context's application services: the
// price calculation orchestrator and LP intrinsic valuation.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/token"
)

const (
	tracerName = "price-service"
	meterName  = "price-service"
)

// Config holds the orchestrator's parameters.
type Config struct {
	AnchorContractID      string
	AnchorSymbol          string
	Stablecoins           []string
	HybridStrategy        domain.HybridStrategy
	MarketWeight          float64
	ArbitrageThresholdPct float64
	BatchSize             int
	MinBulkEntries        int
	CacheTTL              time.Duration
}

type calcOptions struct {
	useCache bool
}

// CalcOption tunes a single price calculation.
type CalcOption func(*calcOptions)

// WithoutCache forces a fresh computation, bypassing the price cache read.
// The result is still written through.
func WithoutCache() CalcOption {
	return func(o *calcOptions) { o.useCache = false }
}

type priceMetrics struct {
	calculations   metric.Int64Counter
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	confidence     metric.Float64Histogram
	arbitrageFlags metric.Int64Counter
}

// PriceService resolves token prices against the anchor asset: via market
// paths, via LP intrinsic valuation, or a hybrid of both. One instance is
// constructed at startup and shared; it holds no per-request state beyond
// its caches.
type PriceService struct {
	config      Config
	liquidity   LiquidityProvider
	oracle      BTCOracle
	valuer      *LPValuer
	cache       PriceCache
	stablecoins domain.StablecoinSet

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *priceMetrics
}

// NewPriceService creates the orchestrator.
func NewPriceService(cfg Config, liquidity LiquidityProvider, oracle BTCOracle, valuer *LPValuer, cache PriceCache, log logger.LoggerInterface) (*PriceService, error) {
	s := &PriceService{
		config:      cfg,
		liquidity:   liquidity,
		oracle:      oracle,
		valuer:      valuer,
		cache:       cache,
		stablecoins: domain.NewStablecoinSet(cfg.Stablecoins),
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return s, nil
}

func (s *PriceService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &priceMetrics{}

	s.metrics.calculations, err = meter.Int64Counter(
		"price_calculations_total",
		metric.WithDescription("Price calculations by source and outcome"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheHits, err = meter.Int64Counter(
		"price_cache_hits_total",
		metric.WithDescription("Price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	s.metrics.cacheMisses, err = meter.Int64Counter(
		"price_cache_misses_total",
		metric.WithDescription("Price cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	s.metrics.confidence, err = meter.Float64Histogram(
		"price_confidence",
		metric.WithDescription("Confidence of published prices"),
	)
	if err != nil {
		return err
	}

	s.metrics.arbitrageFlags, err = meter.Int64Counter(
		"price_arbitrage_flags_total",
		metric.WithDescription("Prices flagged as arbitrage opportunities"),
		metric.WithUnit("{flag}"),
	)
	return err
}

// CalculateTokenPrice resolves one token's USD price and anchor ratio.
func (s *PriceService) CalculateTokenPrice(ctx context.Context, tokenID string, opts ...CalcOption) (*domain.TokenPriceData, error) {
	options := calcOptions{useCache: true}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := s.tracer.Start(ctx, "PriceService.CalculateTokenPrice",
		trace.WithAttributes(
			attribute.String("token", tokenID),
			attribute.Bool("use_cache", options.useCache),
		))
	defer span.End()

	data, err := s.calculate(ctx, span, tokenID, options.useCache)
	if err != nil {
		span.RecordError(err)
		s.metrics.calculations.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", "error"),
			attribute.String("code", string(apperror.GetCode(err))),
		))
		return nil, err
	}

	s.metrics.calculations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "ok"),
		attribute.String("source", string(data.Details.PriceSource)),
	))
	s.metrics.confidence.Record(ctx, data.Confidence)
	if data.IsArbitrageOpportunity {
		s.metrics.arbitrageFlags.Add(ctx, 1)
	}
	return data, nil
}

func (s *PriceService) calculate(ctx context.Context, span trace.Span, tokenID string, useCache bool) (*domain.TokenPriceData, error) {
	// Anchor shortcut: the reference asset is priced by the oracle alone.
	if tokenID == s.config.AnchorContractID {
		return s.anchorPrice(ctx)
	}

	meta, classify := s.tokenMeta(ctx, tokenID)
	isLP := classify(tokenID, meta.Symbol)
	span.SetAttributes(attribute.Bool("is_lp", isLP))

	// Stablecoin shortcut: fixed $1.00 regardless of graph state.
	if s.stablecoins.Contains(meta.Symbol) {
		return s.stablecoinPrice(ctx, meta)
	}

	if useCache {
		if cached, ok := s.cache.Get(ctx, tokenID); ok {
			s.metrics.cacheHits.Add(ctx, 1)
			span.AddEvent("cache hit")
			return cached, nil
		}
		s.metrics.cacheMisses.Add(ctx, 1)
	}

	graph, err := s.liquidity.Graph(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := graph.Node(tokenID); !ok {
		if isLP {
			// The LP token itself is not traded in any pool; value it from
			// its redeemable reserves instead.
			return s.intrinsicOnly(ctx, tokenID, meta)
		}
		return nil, apperror.New(apperror.CodeTokenNotFound, apperror.WithContext(tokenID))
	}

	paths, err := s.liquidity.PathsToAnchor(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		if isLP {
			return s.intrinsicOnly(ctx, tokenID, meta)
		}
		return nil, apperror.New(apperror.CodeNoRoute, apperror.WithContext(tokenID))
	}

	btc, err := s.oracle.GetBTCPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeOracleUnavailable, apperror.WithCause(err))
	}

	rec, ok := reconcilePaths(paths, time.Now())
	if !ok {
		if isLP {
			return s.intrinsicOnly(ctx, tokenID, meta)
		}
		return nil, apperror.New(apperror.CodePriceCalculationFailed,
			apperror.WithMessage("no path produced a valid rate"),
			apperror.WithContext(tokenID))
	}
	span.AddEvent("paths reconciled", trace.WithAttributes(
		attribute.Int("retained", rec.PathsUsed),
		attribute.Int("rejected", rec.Rejected),
		attribute.Float64("variation", rec.Variation),
	))

	marketUSD := rec.Ratio.Mul(btc.Price)
	confidence := scoreConfidence(rec, btc.Confidence)

	data := &domain.TokenPriceData{
		TokenID:     tokenID,
		Symbol:      meta.Symbol,
		USDPrice:    marketUSD,
		AnchorRatio: rec.Ratio,
		Confidence:  confidence,
		UpdatedAt:   time.Now(),
		MarketPrice: &marketUSD,
		IsLPToken:   isLP,
		Details: domain.CalculationDetails{
			BTCPriceUSD:    btc.Price,
			PathsUsed:      rec.PathsUsed,
			TotalLiquidity: rec.AtomicLiquidity,
			PriceVariation: rec.Variation,
			PriceSource:    domain.SourceMarket,
		},
	}

	if isLP {
		s.mergeIntrinsic(ctx, span, data, btc)
	}

	s.cache.Set(ctx, tokenID, data, s.config.CacheTTL)
	return data, nil
}

// mergeIntrinsic folds an LP token's intrinsic valuation into a market
// result under the configured hybrid strategy. Intrinsic failure leaves
// the market result untouched.
func (s *PriceService) mergeIntrinsic(ctx context.Context, span trace.Span, data *domain.TokenPriceData, btc *domain.BTCPrice) {
	intrinsic, intrinsicConf, err := s.intrinsicFor(ctx, data.TokenID)
	if err != nil {
		s.logger.Debug(ctx, "intrinsic valuation unavailable, keeping market price",
			"token", data.TokenID, "error", err)
		return
	}

	market := domain.Quote{Price: *data.MarketPrice, Confidence: data.Confidence}
	estimate := domain.Quote{Price: intrinsic.ValueUSD, Confidence: intrinsicConf}
	merged, source := domain.Reconcile(s.config.HybridStrategy, s.config.MarketWeight, &market, &estimate)

	data.IntrinsicValue = &intrinsic.ValueUSD
	data.PriceDeviationPct = domain.DeviationPct(*data.MarketPrice, intrinsic.ValueUSD)
	data.IsArbitrageOpportunity = domain.IsArbitrage(data.PriceDeviationPct, s.config.ArbitrageThresholdPct)
	data.USDPrice = merged.Price
	data.Confidence = merged.Confidence
	data.AnchorRatio = merged.Price.DivRound(btc.Price, 18)
	data.Details.PriceSource = source
	data.Details.IntrinsicMethod = intrinsic.Method

	span.AddEvent("hybrid reconciliation", trace.WithAttributes(
		attribute.String("strategy", string(s.config.HybridStrategy)),
		attribute.Float64("deviation_pct", data.PriceDeviationPct),
		attribute.Bool("arbitrage", data.IsArbitrageOpportunity),
	))
}

// intrinsicOnly prices an LP token purely from its redeemable reserves,
// used when the token has no market route to the anchor.
func (s *PriceService) intrinsicOnly(ctx context.Context, tokenID string, meta token.Token) (*domain.TokenPriceData, error) {
	intrinsic, confidence, err := s.intrinsicFor(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	btc, err := s.oracle.GetBTCPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeOracleUnavailable, apperror.WithCause(err))
	}

	data := &domain.TokenPriceData{
		TokenID:        tokenID,
		Symbol:         meta.Symbol,
		USDPrice:       intrinsic.ValueUSD,
		AnchorRatio:    intrinsic.ValueUSD.DivRound(btc.Price, 18),
		Confidence:     confidence,
		UpdatedAt:      time.Now(),
		IntrinsicValue: &intrinsic.ValueUSD,
		IsLPToken:      true,
		Details: domain.CalculationDetails{
			BTCPriceUSD:     btc.Price,
			PriceSource:     domain.SourceIntrinsic,
			IntrinsicMethod: intrinsic.Method,
		},
	}

	s.cache.Set(ctx, tokenID, data, s.config.CacheTTL)
	return data, nil
}

// intrinsicFor resolves the underlying pair's prices and values one LP
// unit. The returned confidence is the weaker of the two underlying
// prices' confidences.
func (s *PriceService) intrinsicFor(ctx context.Context, tokenID string) (*IntrinsicResult, float64, error) {
	vault, err := s.liquidity.FindVault(ctx, tokenID)
	if err != nil {
		return nil, 0, err
	}

	prices := make(map[string]decimal.Decimal, 2)
	confidence := 1.0
	for _, underlying := range []token.Token{vault.TokenA, vault.TokenB} {
		priced, err := s.CalculateTokenPrice(ctx, underlying.ContractID)
		if err != nil {
			return nil, 0, apperror.New(apperror.CodeIntrinsicUnavailable,
				apperror.WithMessage("underlying token has no price"),
				apperror.WithContext(underlying.ContractID),
				apperror.WithCause(err))
		}
		prices[underlying.ContractID] = priced.USDPrice
		if priced.Confidence < confidence {
			confidence = priced.Confidence
		}
	}

	result, err := s.valuer.IntrinsicValue(ctx, vault, prices, decimal.NewFromInt(1))
	if err != nil {
		return nil, 0, err
	}
	return result, confidence, nil
}

// anchorPrice prices the reference asset itself.
func (s *PriceService) anchorPrice(ctx context.Context) (*domain.TokenPriceData, error) {
	btc, err := s.oracle.GetBTCPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeOracleUnavailable, apperror.WithCause(err))
	}
	return &domain.TokenPriceData{
		TokenID:     s.config.AnchorContractID,
		Symbol:      s.config.AnchorSymbol,
		USDPrice:    btc.Price,
		AnchorRatio: decimal.NewFromInt(1),
		Confidence:  btc.Confidence,
		UpdatedAt:   time.Now(),
		Details: domain.CalculationDetails{
			BTCPriceUSD: btc.Price,
			PriceSource: domain.SourceDirect,
		},
	}, nil
}

// stablecoinPrice fixes a known stablecoin at $1.00, converting to an
// anchor ratio through the oracle.
func (s *PriceService) stablecoinPrice(ctx context.Context, meta token.Token) (*domain.TokenPriceData, error) {
	btc, err := s.oracle.GetBTCPrice(ctx)
	if err != nil {
		return nil, apperror.New(apperror.CodeOracleUnavailable, apperror.WithCause(err))
	}

	one := decimal.NewFromInt(1)
	return &domain.TokenPriceData{
		TokenID:     meta.ContractID,
		Symbol:      meta.Symbol,
		USDPrice:    one,
		AnchorRatio: one.DivRound(btc.Price, 18),
		Confidence:  1.0,
		UpdatedAt:   time.Now(),
		Details: domain.CalculationDetails{
			BTCPriceUSD: btc.Price,
			PriceSource: domain.SourceDirect,
		},
	}, nil
}

// tokenMeta looks up a token's metadata and builds the LP classifier from
// the current vault snapshot. Registry failures degrade to pattern-only
// classification rather than failing the calculation.
func (s *PriceService) tokenMeta(ctx context.Context, tokenID string) (token.Token, domain.Classifier) {
	meta := token.Token{ContractID: tokenID, Decimals: token.DefaultDecimals}

	if tokens, err := s.liquidity.Tokens(ctx); err == nil {
		for _, t := range tokens {
			if t.ContractID == tokenID {
				meta = t
				break
			}
		}
	} else {
		s.logger.Debug(ctx, "token metadata unavailable", "token", tokenID, "error", err)
	}

	pools := make(map[string]bool)
	if vaults, err := s.liquidity.Vaults(ctx); err == nil {
		for _, v := range vaults {
			if v.IsPool() {
				pools[v.ContractID] = true
			}
		}
	}

	return meta, domain.NewClassifier(pools)
}

// AnalyzeLPToken produces the market-vs-intrinsic comparison for one LP
// token, including the per-underlying value breakdown.
func (s *PriceService) AnalyzeLPToken(ctx context.Context, tokenID string) (*domain.LPAnalysis, error) {
	ctx, span := s.tracer.Start(ctx, "PriceService.AnalyzeLPToken",
		trace.WithAttributes(attribute.String("token", tokenID)))
	defer span.End()

	intrinsic, _, err := s.intrinsicFor(ctx, tokenID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var market *decimal.Decimal
	if priced, err := s.CalculateTokenPrice(ctx, tokenID); err == nil && priced.MarketPrice != nil {
		market = priced.MarketPrice
	}

	return s.valuer.Analyze(tokenID, market, intrinsic, s.config.ArbitrageThresholdPct), nil
}

// CalculateMultipleTokenPrices resolves a batch of tokens. The bulk cache
// is all-or-nothing: a snapshot missing any requested token triggers full
// recomputation. Individual failures are logged and omitted so one bad
// token never aborts the batch.
func (s *PriceService) CalculateMultipleTokenPrices(ctx context.Context, tokenIDs []string) map[string]*domain.TokenPriceData {
	ctx, span := s.tracer.Start(ctx, "PriceService.CalculateMultipleTokenPrices",
		trace.WithAttributes(attribute.Int("tokens", len(tokenIDs))))
	defer span.End()

	if bulk, ok := s.cache.GetBulk(ctx); ok {
		results := make(map[string]*domain.TokenPriceData, len(tokenIDs))
		complete := true
		for _, id := range tokenIDs {
			data, present := bulk[id]
			if !present {
				complete = false
				break
			}
			results[id] = data
		}
		if complete {
			s.metrics.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "bulk")))
			span.AddEvent("bulk cache hit")
			return results
		}
	}
	s.metrics.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "bulk")))

	results := make(map[string]*domain.TokenPriceData, len(tokenIDs))
	var mu sync.Mutex

	batchSize := s.config.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for start := 0; start < len(tokenIDs); start += batchSize {
		end := start + batchSize
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}

		var wg sync.WaitGroup
		for _, id := range tokenIDs[start:end] {
			wg.Add(1)
			go func(tokenID string) {
				defer wg.Done()
				data, err := s.CalculateTokenPrice(ctx, tokenID)
				if err != nil {
					s.logger.Warn(ctx, "price calculation failed in batch",
						"token", tokenID, "error", err)
					return
				}
				mu.Lock()
				results[tokenID] = data
				mu.Unlock()
			}(id)
		}
		wg.Wait()
	}

	// A tiny result set would poison the bulk snapshot for later, larger
	// requests; only persist it when enough tokens priced successfully.
	if len(results) >= s.config.MinBulkEntries {
		s.cache.SetBulk(ctx, results, s.config.CacheTTL)
	}

	span.SetAttributes(attribute.Int("priced", len(results)))
	return results
}

// ClearCache invalidates the bulk snapshot. Per-token entries expire on
// their own TTL.
func (s *PriceService) ClearCache(ctx context.Context) {
	s.cache.DeleteBulk(ctx)
}

// WarmCache proactively prices every token known to the registry.
func (s *PriceService) WarmCache(ctx context.Context) (map[string]*domain.TokenPriceData, error) {
	tokens, err := s.liquidity.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.ContractID)
	}

	results := s.CalculateMultipleTokenPrices(ctx, ids)
	s.logger.Info(ctx, "cache warmed", "requested", len(ids), "priced", len(results))
	return results, nil
}
