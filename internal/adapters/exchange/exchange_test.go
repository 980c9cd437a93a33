package exchange_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/adapters/exchange"
	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"github.com/alejandrodnm/polyedge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.SpotFeed       = (*exchange.Kraken)(nil)
	_ ports.CandleFeed     = (*exchange.KrakenOHLC)(nil)
	_ ports.DerivativeFeed = (*exchange.Bybit)(nil)
)

func serve(t *testing.T, path, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fast() httpx.Option { return httpx.WithRetryWait(time.Millisecond) }

func TestKraken_SpotPrice(t *testing.T) {
	srv := serve(t, "/0/public/Ticker", `{"error":[],"result":{"XXBTZUSD":{"a":["97010.0","1","1.0"],"c":["97005.4","0.0021"]}}}`)

	px, err := exchange.NewKraken(srv.URL, "", fast()).SpotPrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 97005.4, px, 1e-9)
}

func TestKraken_SpotPriceAPIError(t *testing.T) {
	srv := serve(t, "/0/public/Ticker", `{"error":["EQuery:Unknown asset pair"],"result":{}}`)

	_, err := exchange.NewKraken(srv.URL, "NOPE", fast()).SpotPrice(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown asset pair")
}

func TestKrakenOHLC_ClosesSkipsLastKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/0/public/OHLC", r.URL.Path)
		assert.Equal(t, "60", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"error":[],"result":{
			"XXBTZUSD":[
				[1700000000,"100","101","99","100.0","100","1",5],
				[1700003600,"100","102","99","0","100","1",5],
				[1700007200,"100","103","99","102.5","100","1",5],
				[1700010800,"102","104","101","103.0","103","2",7]
			],
			"last":1700010800}}`))
	}))
	defer srv.Close()

	feed := exchange.NewKraken(srv.URL, "", fast()).OHLC()
	assert.Equal(t, "kraken_ohlc_1h", feed.Name())

	closes, err := feed.Closes(context.Background(), 240)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 102.5, 103}, closes)

	last2, err := feed.Closes(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{102.5, 103}, last2)
}

func TestBybit_DerivativePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v5/market/tickers", r.URL.Path)
		assert.Equal(t, "linear", r.URL.Query().Get("category"))
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"category":"linear","list":[{"symbol":"BTCUSDT","lastPrice":"97120.50"}]}}`))
	}))
	defer srv.Close()

	b := exchange.NewBybit(srv.URL, "", fast())
	assert.Equal(t, "bybit_linear", b.Name())
	px, err := b.DerivativePrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 97120.5, px, 1e-9)
}

func TestBybit_Errors(t *testing.T) {
	srv := serve(t, "/v5/market/tickers", `{"retCode":10001,"retMsg":"params error","result":{}}`)
	_, err := exchange.NewBybit(srv.URL, "", fast()).DerivativePrice(context.Background())
	assert.Error(t, err)

	empty := serve(t, "/v5/market/tickers", `{"retCode":0,"retMsg":"OK","result":{"list":[]}}`)
	_, err = exchange.NewBybit(empty.URL, "", fast()).DerivativePrice(context.Background())
	assert.Error(t, err)

	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer blocked.Close()
	_, err = exchange.NewBybit(blocked.URL, "", fast()).DerivativePrice(context.Background())
	assert.Error(t, err)
}
