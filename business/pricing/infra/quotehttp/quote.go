// Package quotehttp adapts the read-only remove-liquidity quotation API to
// the pricing context's QuoteSource port.
package quotehttp

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/pricing/app"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/circuitbreaker"
	"github.com/stxdex/price-engine/internal/httpclient"
	"github.com/stxdex/price-engine/internal/logger"
)

const tracerName = "quote-source"

// Config holds quote client settings.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type quoteRequest struct {
	PoolID   string          `json:"poolId"`
	LPAmount decimal.Decimal `json:"lpAmount"`
}

type quoteResponse struct {
	AmountA decimal.Decimal `json:"amountA"`
	AmountB decimal.Decimal `json:"amountB"`
}

// Source is the HTTP quote client.
type Source struct {
	client *httpclient.Client
	logger logger.LoggerInterface
	tracer trace.Tracer
	cb     *circuitbreaker.CircuitBreaker[*app.RemoveQuote]
}

// New creates a quote client.
func New(cfg Config, log logger.LoggerInterface) (*Source, error) {
	client, err := httpclient.New(
		httpclient.WithProviderName("quote-source"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("quote http client: %w", err)
	}

	return &Source{
		client: client,
		logger: log,
		tracer: otel.Tracer(tracerName),
		cb:     circuitbreaker.New[*app.RemoveQuote](circuitbreaker.DefaultConfig("quote-source")),
	}, nil
}

// RemoveLiquidityQuote returns the underlying amounts redeemable for
// lpAmount units of the pool's LP token.
func (s *Source) RemoveLiquidityQuote(ctx context.Context, vaultID string, lpAmount decimal.Decimal) (*app.RemoveQuote, error) {
	ctx, span := s.tracer.Start(ctx, "Source.RemoveLiquidityQuote",
		trace.WithAttributes(attribute.String("vault", vaultID)))
	defer span.End()

	quote, err := s.cb.Execute(func() (*app.RemoveQuote, error) {
		var payload quoteResponse
		resp, err := s.client.NewRequest().
			SetBody(quoteRequest{PoolID: vaultID, LPAmount: lpAmount}).
			SetResult(&payload).
			Post(ctx, "/v1/quote/remove-liquidity")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("quote source returned %s", resp.Status)
		}
		if payload.AmountA.Sign() < 0 || payload.AmountB.Sign() < 0 {
			return nil, fmt.Errorf("quote source returned negative amounts")
		}
		return &app.RemoveQuote{AmountA: payload.AmountA, AmountB: payload.AmountB}, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContext(vaultID), apperror.WithCause(err))
	}

	return quote, nil
}
