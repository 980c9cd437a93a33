package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMarkets_MapsGamma(t *testing.T) {
	srv := serveFixture(t, "gamma_markets.json", http.MethodGet, "/markets")

	markets, err := newTestClient(nil, srv).FetchMarkets(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, markets, 2, "el mercado sin clobTokenIds se descarta")

	m := markets[0]
	assert.Equal(t, "512340", m.ID)
	assert.Equal(t, "will-bitcoin-reach-150k-by-december-31-2026", m.Slug)
	assert.Equal(t, "Crypto", m.Category)
	assert.Equal(t, "token_yes_001", m.YesTokenID)
	assert.Equal(t, "token_no_001", m.NoTokenID)
	assert.InDelta(t, 185000.5, m.Liquidity, 1e-9)
	assert.InDelta(t, 2450000.0, m.Volume, 1e-9)
	assert.True(t, m.AcceptingOrders)
	assert.True(t, m.EnableOrderBook)
	assert.Equal(t, time.Date(2026, 12, 31, 12, 0, 0, 0, time.UTC), m.EndDate)
	assert.Zero(t, m.YesMid, "los mids llegan por otro endpoint")
	assert.False(t, m.ScannedAt.IsZero())

	// numéricos como string y fecha solo-día
	m2 := markets[1]
	assert.InDelta(t, 90000.0, m2.Liquidity, 1e-9)
	assert.InDelta(t, 310000.25, m2.Volume, 1e-9)
	assert.False(t, m2.AcceptingOrders)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), m2.EndDate)
}

func TestFetchMarkets_QueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "25", q.Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	markets, err := newTestClient(nil, srv).FetchMarkets(context.Background(), 25)
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestFetchMarkets_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(nil, srv).FetchMarkets(context.Background(), 5)
	assert.Error(t, err)
}
