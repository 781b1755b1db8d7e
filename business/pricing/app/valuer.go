package app

import (
	"context"
	"math"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	liqdomain "github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/token"
)

// IntrinsicResult is an LP token valuation: USD value for the requested LP
// amount, the strategy that produced it, and the per-underlying breakdown.
type IntrinsicResult struct {
	ValueUSD  decimal.Decimal
	Method    domain.IntrinsicMethod
	Breakdown []domain.AssetBreakdown
}

// LPValuer computes the intrinsic (reserve-backed) value of LP tokens.
//
// With a quote source configured it values the pool's actual
// remove-liquidity quotation; otherwise it estimates total LP supply as
// the geometric mean of the reserves. Real AMM supply differs from the
// estimate, so the method is surfaced on every result. Total supply is
// never approximated as the sum of the two reserves: those are different
// tokens' units.
type LPValuer struct {
	quotes QuoteSource // nil disables the quote strategy
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewLPValuer creates a valuer. quotes may be nil.
func NewLPValuer(quotes QuoteSource, log logger.LoggerInterface) *LPValuer {
	return &LPValuer{
		quotes: quotes,
		logger: log,
		tracer: otel.Tracer("lp-valuer"),
	}
}

// IntrinsicValue values lpAmount units of the vault's LP token given USD
// prices for both underlying tokens, keyed by contract ID. Missing prices
// and drained reserves yield CodeIntrinsicUnavailable; the valuer never
// guesses.
func (v *LPValuer) IntrinsicValue(ctx context.Context, vault *liqdomain.Vault, prices map[string]decimal.Decimal, lpAmount decimal.Decimal) (*IntrinsicResult, error) {
	ctx, span := v.tracer.Start(ctx, "LPValuer.IntrinsicValue",
		trace.WithAttributes(attribute.String("vault", vault.ContractID)))
	defer span.End()

	priceA, okA := prices[vault.TokenA.ContractID]
	priceB, okB := prices[vault.TokenB.ContractID]
	if !okA || !okB {
		return nil, apperror.New(apperror.CodeIntrinsicUnavailable,
			apperror.WithMessage("missing underlying token price"),
			apperror.WithContext(vault.ContractID))
	}
	if !vault.HasReserves() {
		return nil, apperror.New(apperror.CodeIntrinsicUnavailable,
			apperror.WithMessage("vault has a drained reserve"),
			apperror.WithContext(vault.ContractID))
	}
	if lpAmount.Sign() <= 0 {
		lpAmount = decimal.NewFromInt(1)
	}

	if v.quotes != nil {
		res, err := v.fromQuote(ctx, vault, priceA, priceB, lpAmount)
		if err == nil {
			span.SetAttributes(attribute.String("method", string(domain.MethodQuote)))
			return res, nil
		}
		v.logger.Warn(ctx, "remove-liquidity quote failed, using geometric-mean estimate",
			"vault", vault.ContractID, "error", err)
	}

	res, err := v.fromGeometricMean(vault, priceA, priceB, lpAmount)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.String("method", string(domain.MethodGeometricMean)))
	return res, nil
}

func (v *LPValuer) fromQuote(ctx context.Context, vault *liqdomain.Vault, priceA, priceB, lpAmount decimal.Decimal) (*IntrinsicResult, error) {
	quote, err := v.quotes.RemoveLiquidityQuote(ctx, vault.ContractID, lpAmount)
	if err != nil {
		return nil, err
	}

	humanA := token.AtomicToDecimal(quote.AmountA, vault.TokenA.Decimals)
	humanB := token.AtomicToDecimal(quote.AmountB, vault.TokenB.Decimals)
	valueA := humanA.Mul(priceA)
	valueB := humanB.Mul(priceB)
	total := valueA.Add(valueB)
	if total.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeIntrinsicUnavailable,
			apperror.WithMessage("quote yields zero value"),
			apperror.WithContext(vault.ContractID))
	}

	return &IntrinsicResult{
		ValueUSD: total,
		Method:   domain.MethodQuote,
		Breakdown: breakdown(vault,
			humanA.DivRound(lpAmount, 18), valueA,
			humanB.DivRound(lpAmount, 18), valueB),
	}, nil
}

func (v *LPValuer) fromGeometricMean(vault *liqdomain.Vault, priceA, priceB, lpAmount decimal.Decimal) (*IntrinsicResult, error) {
	humanA := token.AtomicToDecimal(vault.ReservesA, vault.TokenA.Decimals)
	humanB := token.AtomicToDecimal(vault.ReservesB, vault.TokenB.Decimals)
	poolValue := humanA.Mul(priceA).Add(humanB.Mul(priceB))

	// supply ≈ √(reserveA·reserveB) scaled by the LP token's precision.
	fa, _ := vault.ReservesA.Float64()
	fb, _ := vault.ReservesB.Float64()
	supplyF := math.Sqrt(fa*fb) / math.Pow10(int(vault.LPDecimals))
	if supplyF <= 0 || math.IsInf(supplyF, 0) || math.IsNaN(supplyF) {
		return nil, apperror.New(apperror.CodeIntrinsicUnavailable,
			apperror.WithMessage("cannot estimate LP supply"),
			apperror.WithContext(vault.ContractID))
	}
	supply := decimal.NewFromFloat(supplyF)

	perUnit := poolValue.DivRound(supply, 18)
	valueA := humanA.Mul(priceA).DivRound(supply, 18).Mul(lpAmount)
	valueB := humanB.Mul(priceB).DivRound(supply, 18).Mul(lpAmount)

	return &IntrinsicResult{
		ValueUSD: perUnit.Mul(lpAmount),
		Method:   domain.MethodGeometricMean,
		Breakdown: breakdown(vault,
			humanA.DivRound(supply, 18), valueA,
			humanB.DivRound(supply, 18), valueB),
	}, nil
}

func breakdown(vault *liqdomain.Vault, amountA, valueA, amountB, valueB decimal.Decimal) []domain.AssetBreakdown {
	total := valueA.Add(valueB)
	share := func(v decimal.Decimal) float64 {
		if total.Sign() == 0 {
			return 0
		}
		f, _ := v.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		return f
	}
	return []domain.AssetBreakdown{
		{
			TokenID:  vault.TokenA.ContractID,
			Symbol:   vault.TokenA.Symbol,
			Amount:   amountA,
			ValueUSD: valueA,
			SharePct: share(valueA),
		},
		{
			TokenID:  vault.TokenB.ContractID,
			Symbol:   vault.TokenB.Symbol,
			Amount:   amountB,
			ValueUSD: valueB,
			SharePct: share(valueB),
		},
	}
}

// Analyze compares an LP token's market price, when one exists, against
// its intrinsic valuation.
func (v *LPValuer) Analyze(vaultID string, market *decimal.Decimal, intrinsic *IntrinsicResult, thresholdPct float64) *domain.LPAnalysis {
	analysis := &domain.LPAnalysis{
		VaultID:        vaultID,
		MarketPrice:    market,
		IntrinsicValue: intrinsic.ValueUSD,
		Method:         intrinsic.Method,
		Breakdown:      intrinsic.Breakdown,
	}
	if market != nil {
		analysis.DeviationPct = domain.DeviationPct(*market, intrinsic.ValueUSD)
		analysis.IsArbitrageOpportunity = domain.IsArbitrage(analysis.DeviationPct, thresholdPct)
	}
	return analysis
}
