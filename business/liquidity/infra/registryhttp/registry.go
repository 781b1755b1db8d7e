// Package registryhttp adapts the pool/vault registry HTTP API to the
// liquidity context's VaultRegistry port.
package registryhttp

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/circuitbreaker"
	"github.com/stxdex/price-engine/internal/httpclient"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/ratelimit"
	"github.com/stxdex/price-engine/internal/token"
)

const tracerName = "registry-http"

// Config holds registry client settings.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

type tokenDTO struct {
	ContractID string `json:"contractId"`
	Symbol     string `json:"symbol"`
	Decimals   int32  `json:"decimals"`
}

type vaultDTO struct {
	ContractID   string          `json:"contractId"`
	Type         string          `json:"type"`
	TokenA       tokenDTO        `json:"tokenA"`
	TokenB       tokenDTO        `json:"tokenB"`
	ReservesA    decimal.Decimal `json:"reservesA"`
	ReservesB    decimal.Decimal `json:"reservesB"`
	Decimals     int32           `json:"decimals"`
	FeePercent   decimal.Decimal `json:"feePercent"`
	LiquidityUSD decimal.Decimal `json:"liquidityUsd"`
	UpdatedAtMs  int64           `json:"updatedAt"`
}

type vaultsResponse struct {
	Vaults []vaultDTO `json:"vaults"`
}

type tokensResponse struct {
	Tokens []tokenDTO `json:"tokens"`
}

// Registry is the HTTP vault-registry client.
type Registry struct {
	client  *httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer

	vaultsCB *circuitbreaker.CircuitBreaker[[]domain.Vault]
	tokensCB *circuitbreaker.CircuitBreaker[[]token.Token]
}

// New creates a registry client.
func New(cfg Config, log logger.LoggerInterface) (*Registry, error) {
	client, err := httpclient.New(
		httpclient.WithProviderName("vault-registry"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("registry http client: %w", err)
	}

	r := &Registry{
		client:  client,
		limiter: ratelimit.PerMinute(cfg.RequestsPerMinute),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	onStateChange := func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}

	vaultsCfg := circuitbreaker.DefaultConfig("registry-vaults")
	vaultsCfg.OnStateChange = onStateChange
	r.vaultsCB = circuitbreaker.New[[]domain.Vault](vaultsCfg)

	tokensCfg := circuitbreaker.DefaultConfig("registry-tokens")
	tokensCfg.OnStateChange = onStateChange
	r.tokensCB = circuitbreaker.New[[]token.Token](tokensCfg)

	return r, nil
}

// ListVaults fetches the full vault snapshot.
func (r *Registry) ListVaults(ctx context.Context) ([]domain.Vault, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.ListVaults")
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vaults, err := r.vaultsCB.Execute(func() ([]domain.Vault, error) {
		var payload vaultsResponse
		resp, err := r.client.NewRequest().SetResult(&payload).Get(ctx, "/v1/vaults")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("registry returned %s", resp.Status)
		}

		out := make([]domain.Vault, 0, len(payload.Vaults))
		for _, dto := range payload.Vaults {
			out = append(out, mapVault(dto))
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRegistryUnavailable, apperror.WithCause(err))
	}

	span.SetAttributes(attribute.Int("vaults", len(vaults)))
	return vaults, nil
}

// ListVaultTokens fetches every token known to the registry.
func (r *Registry) ListVaultTokens(ctx context.Context) ([]token.Token, error) {
	ctx, span := r.tracer.Start(ctx, "Registry.ListVaultTokens")
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	tokens, err := r.tokensCB.Execute(func() ([]token.Token, error) {
		var payload tokensResponse
		resp, err := r.client.NewRequest().SetResult(&payload).Get(ctx, "/v1/vault-tokens")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("registry returned %s", resp.Status)
		}

		out := make([]token.Token, 0, len(payload.Tokens))
		for _, dto := range payload.Tokens {
			out = append(out, mapToken(dto))
		}
		return out, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRegistryUnavailable, apperror.WithCause(err))
	}

	span.SetAttributes(attribute.Int("tokens", len(tokens)))
	return tokens, nil
}

func mapToken(dto tokenDTO) token.Token {
	decimals := dto.Decimals
	if !token.ValidDecimals(decimals) {
		decimals = token.DefaultDecimals
	}
	return token.Token{
		ContractID: dto.ContractID,
		Symbol:     dto.Symbol,
		Decimals:   decimals,
	}
}

func mapVault(dto vaultDTO) domain.Vault {
	return domain.Vault{
		ContractID:   dto.ContractID,
		Type:         dto.Type,
		TokenA:       mapToken(dto.TokenA),
		TokenB:       mapToken(dto.TokenB),
		ReservesA:    dto.ReservesA,
		ReservesB:    dto.ReservesB,
		LPDecimals:   dto.Decimals,
		FeePct:       dto.FeePercent,
		LiquidityUSD: dto.LiquidityUSD,
		UpdatedAt:    time.UnixMilli(dto.UpdatedAtMs),
	}
}
