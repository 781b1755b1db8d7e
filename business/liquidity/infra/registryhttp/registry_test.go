package registryhttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/logger"
)

func newTestRegistry(t *testing.T, handler http.HandlerFunc) *Registry {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	reg, err := New(Config{
		BaseURL:           server.URL,
		RequestTimeout:    2 * time.Second,
		RequestsPerMinute: 600,
	}, log)
	require.NoError(t, err)
	return reg
}

func TestRegistry_ListVaults(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/vaults", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"vaults": [{
				"contractId": "SP1.alex-sbtc-pool",
				"type": "POOL",
				"tokenA": {"contractId": "SP1.alex", "symbol": "ALEX", "decimals": 8},
				"tokenB": {"contractId": "SM3.sbtc-token", "symbol": "sBTC", "decimals": 8},
				"reservesA": "1000000000",
				"reservesB": "50000000",
				"decimals": 6,
				"feePercent": "0.3",
				"liquidityUsd": "80000",
				"updatedAt": 1756684800000
			}]
		}`))
	})

	vaults, err := reg.ListVaults(context.Background())
	require.NoError(t, err)
	require.Len(t, vaults, 1)

	v := vaults[0]
	assert.Equal(t, "SP1.alex-sbtc-pool", v.ContractID)
	assert.True(t, v.IsPool())
	assert.Equal(t, "ALEX", v.TokenA.Symbol)
	assert.Equal(t, int32(8), v.TokenA.Decimals)
	assert.Equal(t, "1000000000", v.ReservesA.String())
	assert.Equal(t, int32(6), v.LPDecimals)
	assert.Equal(t, "80000", v.LiquidityUSD.String())
}

func TestRegistry_ListVaults_InvalidDecimalsDefaulted(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"vaults": [{
				"contractId": "SP1.pool",
				"type": "POOL",
				"tokenA": {"contractId": "SP1.a", "symbol": "A", "decimals": 99},
				"tokenB": {"contractId": "SP1.b", "symbol": "B", "decimals": -1},
				"reservesA": "1",
				"reservesB": "1",
				"decimals": 6,
				"updatedAt": 0
			}]
		}`))
	})

	vaults, err := reg.ListVaults(context.Background())
	require.NoError(t, err)
	require.Len(t, vaults, 1)
	assert.Equal(t, int32(6), vaults[0].TokenA.Decimals)
	assert.Equal(t, int32(6), vaults[0].TokenB.Decimals)
}

func TestRegistry_ListVaultTokens(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/vault-tokens", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tokens": [
			{"contractId": "SP1.alex", "symbol": "ALEX", "decimals": 8},
			{"contractId": "SP2.usda", "symbol": "USDA", "decimals": 6}
		]}`))
	})

	tokens, err := reg.ListVaultTokens(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "USDA", tokens[1].Symbol)
}

func TestRegistry_UpstreamError(t *testing.T) {
	reg := newTestRegistry(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := reg.ListVaults(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeRegistryUnavailable))
}
