package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *httpx.Client {
	return httpx.New(httpx.WithRetryWait(time.Millisecond))
}

func TestGet_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"mid":"0.42"}`))
	}))
	defer srv.Close()

	var out struct {
		Mid string `json:"mid"`
	}
	err := fastClient().Get(context.Background(), httpx.NewLimiter(100, 1), srv.URL, &out)
	require.NoError(t, err)
	assert.Equal(t, "0.42", out.Mid)
}

func TestPost_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	var out []any
	err := fastClient().Post(context.Background(), nil, srv.URL, []map[string]string{{"token_id": "a"}}, &out)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, fastClient().Get(context.Background(), nil, srv.URL, &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, fastClient().Get(context.Background(), nil, srv.URL, &out))
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := httpx.New(httpx.WithRetryWait(time.Millisecond), httpx.WithMaxRetries(2))
	err := c.Get(context.Background(), nil, srv.URL, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad token`))
	}))
	defer srv.Close()

	err := fastClient().Get(context.Background(), nil, srv.URL, nil)
	var se *httpx.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Contains(t, se.Body, "bad token")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := fastClient().Get(ctx, httpx.NewLimiter(1, 1), srv.URL, nil)
	assert.Error(t, err)
}
