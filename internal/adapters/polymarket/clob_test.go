package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"github.com/alejandrodnm/polyedge/internal/adapters/polymarket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(clobSrv, gammaSrv *httptest.Server) *polymarket.Client {
	clobURL := ""
	gammaURL := ""
	if clobSrv != nil {
		clobURL = clobSrv.URL
	}
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	return polymarket.NewClient(clobURL, gammaURL, httpx.WithRetryWait(time.Millisecond))
}

func serveFixture(t *testing.T, name, method, path string) *httptest.Server {
	t.Helper()
	data, err := os.ReadFile("../../../testdata/fixtures/" + name)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, method, r.Method)
		assert.Equal(t, path, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOrderBooks_Batch(t *testing.T) {
	srv := serveFixture(t, "clob_orderbooks_batch.json", http.MethodPost, "/books")

	client := newTestClient(srv, nil)
	books, err := client.FetchOrderBooks(context.Background(), []string{"token_yes_001", "token_no_001"})

	require.NoError(t, err)
	require.Len(t, books, 2)

	yesBook, ok := books["token_yes_001"]
	require.True(t, ok)
	assert.Equal(t, "token_yes_001", yesBook.TokenID)
	require.NotEmpty(t, yesBook.Bids)
	assert.InDelta(t, 0.70, yesBook.Bids[0].Price, 0.001)
	assert.InDelta(t, 0.72, yesBook.BestAsk(), 0.001)

	noBook, ok := books["token_no_001"]
	require.True(t, ok)
	require.NotEmpty(t, noBook.Bids)
	assert.InDelta(t, 0.27, noBook.Bids[0].Price, 0.001)
	assert.InDelta(t, 0.29, noBook.BestAsk(), 0.001)
}

func TestFetchOrderBooks_SortedAndFiltered(t *testing.T) {
	srv := serveFixture(t, "clob_orderbooks_batch.json", http.MethodPost, "/books")

	books, err := newTestClient(srv, nil).FetchOrderBooks(context.Background(), []string{"token_yes_001"})
	require.NoError(t, err)

	book := books["token_yes_001"]

	// Bids: mayor a menor
	require.Len(t, book.Bids, 2)
	assert.Greater(t, book.Bids[0].Price, book.Bids[1].Price)

	// Asks: menor a mayor, el nivel con size 0 se descarta
	require.Len(t, book.Asks, 2)
	assert.Less(t, book.Asks[0].Price, book.Asks[1].Price)
}

func TestFetchOrderBooks_BatchSplitting(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body []map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body), 20)
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	// 25 token_ids → 2 requests (batch de 20 + batch de 5)
	tokenIDs := make([]string, 25)
	for i := range tokenIDs {
		tokenIDs[i] = "token_" + string(rune('a'+i))
	}

	_, err := newTestClient(srv, nil).FetchOrderBooks(context.Background(), tokenIDs)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "debe hacer 2 requests batch para 25 tokens")
}

func TestFetchOrderBooks_Empty(t *testing.T) {
	books, err := newTestClient(nil, nil).FetchOrderBooks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestFetchMidpoints_SkipsNonNumeric(t *testing.T) {
	srv := serveFixture(t, "clob_midpoints.json", http.MethodPost, "/midpoints")

	mids, err := newTestClient(srv, nil).FetchMidpoints(context.Background(),
		[]string{"token_yes_001", "token_no_001", "token_yes_002", "token_no_002"})
	require.NoError(t, err)

	assert.Len(t, mids, 3)
	assert.InDelta(t, 0.71, mids["token_yes_001"], 1e-9)
	assert.InDelta(t, 0.28, mids["token_no_001"], 1e-9)
	_, ok := mids["token_no_002"]
	assert.False(t, ok)
}

func TestFetchMidpoints_BatchesOfHundred(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body []map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		out := make(map[string]string, len(body))
		for _, b := range body {
			out[b["token_id"]] = "0.5"
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	tokenIDs := make([]string, 250)
	for i := range tokenIDs {
		tokenIDs[i] = "tok" + string(rune('A'+i%26)) + string(rune('a'+i/26))
	}

	mids, err := newTestClient(srv, nil).FetchMidpoints(context.Background(), tokenIDs)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, mids, 250)
}

func TestFetchMidpoints_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv, nil).FetchMidpoints(context.Background(), []string{"a"})
	assert.Error(t, err)
}
