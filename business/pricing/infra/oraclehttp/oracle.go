// Package oraclehttp adapts the reference-asset price oracle to the
// pricing context's BTCOracle port. Quotes are pulled over HTTP and,
// when a stream URL is configured, kept fresh from a WebSocket push feed.
package oraclehttp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/cache"
	"github.com/stxdex/price-engine/internal/circuitbreaker"
	"github.com/stxdex/price-engine/internal/httpclient"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/wsconn"
)

const (
	tracerName = "btc-oracle"

	priceCacheKey = "btc-price"
)

// Config holds oracle client settings.
type Config struct {
	BaseURL        string
	StreamURL      string // optional push feed
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

type priceDTO struct {
	Price      decimal.Decimal `json:"price"`
	Confidence float64         `json:"confidence"`
	UpdatedAt  int64           `json:"updatedAt"`
}

// Oracle is the BTC oracle client.
type Oracle struct {
	config Config
	client *httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer

	quoteCache *cache.Cache[string, *domain.BTCPrice]
	cb         *circuitbreaker.CircuitBreaker[*domain.BTCPrice]

	stream *wsconn.Client
}

// New creates an oracle client.
func New(cfg Config, log logger.LoggerInterface) (*Oracle, error) {
	client, err := httpclient.New(
		httpclient.WithProviderName("btc-oracle"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("oracle http client: %w", err)
	}

	o := &Oracle{
		config:     cfg,
		client:     client,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
		quoteCache: cache.New[string, *domain.BTCPrice](time.Minute),
	}

	cbCfg := circuitbreaker.DefaultConfig("btc-oracle")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	o.cb = circuitbreaker.New[*domain.BTCPrice](cbCfg)

	if cfg.StreamURL != "" {
		streamCfg := wsconn.DefaultConfig(cfg.StreamURL, "btc-oracle-stream")
		stream, err := wsconn.New(streamCfg)
		if err != nil {
			return nil, fmt.Errorf("oracle stream: %w", err)
		}
		o.stream = stream
	}

	return o, nil
}

// GetBTCPrice returns the reference asset's current USD quote, serving
// from the oracle's own short cache when fresh.
func (o *Oracle) GetBTCPrice(ctx context.Context) (*domain.BTCPrice, error) {
	if quote, ok := o.quoteCache.Get(ctx, priceCacheKey); ok {
		return quote, nil
	}

	ctx, span := o.tracer.Start(ctx, "Oracle.GetBTCPrice")
	defer span.End()

	quote, err := o.cb.Execute(func() (*domain.BTCPrice, error) {
		return o.fetch(ctx)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeOracleUnavailable, apperror.WithCause(err))
	}

	span.SetAttributes(
		attribute.String("price", quote.Price.String()),
		attribute.Float64("confidence", quote.Confidence),
	)
	o.quoteCache.Set(ctx, priceCacheKey, quote, o.config.CacheTTL)
	return quote, nil
}

func (o *Oracle) fetch(ctx context.Context) (*domain.BTCPrice, error) {
	var dto priceDTO
	resp, err := o.client.NewRequest().SetResult(&dto).Get(ctx, "/v1/price/btc")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("oracle returned %s", resp.Status)
	}
	return mapPrice(dto)
}

func mapPrice(dto priceDTO) (*domain.BTCPrice, error) {
	if dto.Price.Sign() <= 0 {
		return nil, fmt.Errorf("oracle returned non-positive price %s", dto.Price)
	}
	confidence := dto.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	updatedAt := time.Now()
	if dto.UpdatedAt > 0 {
		updatedAt = time.UnixMilli(dto.UpdatedAt)
	}
	return &domain.BTCPrice{
		Price:      dto.Price,
		Confidence: confidence,
		UpdatedAt:  updatedAt,
	}, nil
}

// StartStream connects the push feed and keeps the cached quote fresh
// until ctx is cancelled. No-op when no stream URL is configured.
func (o *Oracle) StartStream(ctx context.Context) error {
	if o.stream == nil {
		return nil
	}
	if err := o.stream.Connect(ctx); err != nil {
		return fmt.Errorf("oracle stream connect: %w", err)
	}

	go o.consumeStream(ctx)
	return nil
}

func (o *Oracle) consumeStream(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-o.stream.Messages():
			if !ok {
				o.logger.Warn(ctx, "oracle stream closed")
				return
			}

			var dto priceDTO
			if err := json.Unmarshal(msg, &dto); err != nil {
				o.logger.Warn(ctx, "malformed oracle stream message", "error", err)
				continue
			}
			quote, err := mapPrice(dto)
			if err != nil {
				o.logger.Warn(ctx, "invalid oracle stream quote", "error", err)
				continue
			}
			o.quoteCache.Set(ctx, priceCacheKey, quote, o.config.CacheTTL)
		}
	}
}

// Close tears down the stream and cache janitor.
func (o *Oracle) Close() error {
	o.quoteCache.Stop()
	if o.stream != nil {
		return o.stream.Close()
	}
	return nil
}
