package oraclehttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stxdex/price-engine/internal/apperror"
	"github.com/stxdex/price-engine/internal/logger"
)

func newTestOracle(t *testing.T, handler http.HandlerFunc, cacheTTL time.Duration) *Oracle {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New(io.Discard, logger.LevelInfo, "test", nil)
	oracle, err := New(Config{
		BaseURL:        server.URL,
		RequestTimeout: 2 * time.Second,
		CacheTTL:       cacheTTL,
	}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = oracle.Close() })
	return oracle
}

func TestOracle_GetBTCPrice(t *testing.T) {
	var hits atomic.Int32
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, "/v1/price/btc", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": "67000.50", "confidence": 0.97, "updatedAt": 1756684800000}`))
	}, time.Minute)

	quote, err := oracle.GetBTCPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "67000.5", quote.Price.String())
	assert.Equal(t, 0.97, quote.Confidence)

	// Second read serves the cached quote.
	_, err = oracle.GetBTCPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestOracle_NonPositivePriceRejected(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": "0", "confidence": 0.9}`))
	}, time.Minute)

	_, err := oracle.GetBTCPrice(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOracleUnavailable))
}

func TestOracle_UpstreamError(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, time.Minute)

	_, err := oracle.GetBTCPrice(context.Background())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeOracleUnavailable))
}

func TestOracle_ConfidenceClamped(t *testing.T) {
	oracle := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"price": "67000", "confidence": 1.8}`))
	}, time.Minute)

	quote, err := oracle.GetBTCPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, quote.Confidence)
}
