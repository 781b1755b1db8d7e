package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	liqdomain "github.com/stxdex/price-engine/business/liquidity/domain"
	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/logger"
	"github.com/stxdex/price-engine/internal/token"
)

type fakeQuoteSource struct {
	quote *RemoveQuote
	err   error
}

func (f *fakeQuoteSource) RemoveLiquidityQuote(ctx context.Context, vaultID string, lpAmount decimal.Decimal) (*RemoveQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func testVault() *liqdomain.Vault {
	return &liqdomain.Vault{
		ContractID: "SP1.ab-pool-token",
		Type:       liqdomain.VaultTypePool,
		TokenA:     token.Token{ContractID: "SP1.a", Symbol: "A", Decimals: 6},
		TokenB:     token.Token{ContractID: "SP1.b", Symbol: "B", Decimals: 6},
		ReservesA:  decimal.NewFromInt(1_000_000),
		ReservesB:  decimal.NewFromInt(500_000),
		LPDecimals: 6,
	}
}

func testPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"SP1.a": decimal.NewFromInt(2),
		"SP1.b": decimal.NewFromInt(4),
	}
}

func TestLPValuer_GeometricMean(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	valuer := NewLPValuer(nil, log)

	res, err := valuer.IntrinsicValue(context.Background(), testVault(), testPrices(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGeometricMean, res.Method)

	// Pool value: 1 A x $2 + 0.5 B x $4 = $4.
	// Estimated supply: sqrt(1e6 x 5e5) / 1e6 ~ 0.7071.
	// Per LP token: 4 / 0.7071 ~ $5.66.
	got, _ := res.ValueUSD.Float64()
	assert.InDelta(t, 5.6568, got, 0.001)

	require.Len(t, res.Breakdown, 2)
	// Both sides hold $2 of value: a 50/50 split.
	assert.InDelta(t, 50.0, res.Breakdown[0].SharePct, 0.01)
	assert.InDelta(t, 50.0, res.Breakdown[1].SharePct, 0.01)
}

func TestLPValuer_QuotePreferred(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	quotes := &fakeQuoteSource{quote: &RemoveQuote{
		AmountA: decimal.NewFromInt(1_500_000), // 1.5 A
		AmountB: decimal.NewFromInt(750_000),   // 0.75 B
	}}
	valuer := NewLPValuer(quotes, log)

	res, err := valuer.IntrinsicValue(context.Background(), testVault(), testPrices(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, domain.MethodQuote, res.Method)

	// 1.5 x $2 + 0.75 x $4 = $6.
	assert.Equal(t, "6", res.ValueUSD.String())
}

func TestLPValuer_QuoteFailureFallsBack(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	quotes := &fakeQuoteSource{err: errors.New("contract read failed")}
	valuer := NewLPValuer(quotes, log)

	res, err := valuer.IntrinsicValue(context.Background(), testVault(), testPrices(), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, domain.MethodGeometricMean, res.Method)
}

func TestLPValuer_MissingInputs(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	valuer := NewLPValuer(nil, log)
	ctx := context.Background()

	t.Run("missing underlying price", func(t *testing.T) {
		prices := map[string]decimal.Decimal{"SP1.a": decimal.NewFromInt(2)}
		_, err := valuer.IntrinsicValue(ctx, testVault(), prices, decimal.NewFromInt(1))
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeIntrinsicUnavailable))
	})

	t.Run("drained reserve", func(t *testing.T) {
		vault := testVault()
		vault.ReservesB = decimal.Zero
		_, err := valuer.IntrinsicValue(ctx, vault, testPrices(), decimal.NewFromInt(1))
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeIntrinsicUnavailable))
	})
}

func TestLPValuer_Analyze(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	valuer := NewLPValuer(nil, log)

	intrinsic := &IntrinsicResult{
		ValueUSD: decimal.NewFromInt(1),
		Method:   domain.MethodGeometricMean,
	}

	market := decimal.RequireFromString("1.10")
	analysis := valuer.Analyze("SP1.pool", &market, intrinsic, 5.0)
	assert.True(t, analysis.IsArbitrageOpportunity)
	assert.InDelta(t, 10.0, analysis.DeviationPct, 1e-9)

	noMarket := valuer.Analyze("SP1.pool", nil, intrinsic, 5.0)
	assert.False(t, noMarket.IsArbitrageOpportunity)
	assert.Zero(t, noMarket.DeviationPct)
}
