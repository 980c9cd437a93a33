package polymarket

// clob.go — Polymarket CLOB API adapter.
//
// FetchOrderBooks y FetchMidpoints lanzan una goroutine por batch. El rate
// limiter (token bucket) de httpx controla el ritmo, así que las goroutines se
// autolimitan sin semáforo explícito.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const (
	booksPath         = "/books"
	midpointsPath     = "/midpoints"
	batchSize         = 20  // máx token_ids por request a /books
	midpointBatchSize = 100 // máx token_ids por request a /midpoints
)

// FetchOrderBooks obtiene los orderbooks para los token_ids dados usando el endpoint batch.
func (c *Client) FetchOrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	if len(tokenIDs) == 0 {
		return map[string]domain.OrderBook{}, nil
	}

	result, err := fanOut(ctx, splitBatches(tokenIDs, batchSize), c.fetchBooksBatch)
	if err != nil {
		return nil, fmt.Errorf("clob.FetchOrderBooks: %w", err)
	}

	slog.Debug("order books fetched", "tokens", len(tokenIDs), "books", len(result))
	return result, nil
}

// FetchMidpoints devuelve token_id → midpoint. Los tokens que el CLOB no
// conoce, o con un mid no numérico, no aparecen en el resultado.
func (c *Client) FetchMidpoints(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	if len(tokenIDs) == 0 {
		return map[string]float64{}, nil
	}

	result, err := fanOut(ctx, splitBatches(tokenIDs, midpointBatchSize), c.fetchMidpointsBatch)
	if err != nil {
		return nil, fmt.Errorf("clob.FetchMidpoints: %w", err)
	}

	slog.Debug("midpoints fetched", "tokens", len(tokenIDs), "mids", len(result))
	return result, nil
}

// fanOut ejecuta fetch para cada batch de forma concurrente y junta los mapas.
// Si algún batch falla devuelve el primer error.
func fanOut[V any](ctx context.Context, batches [][]string, fetch func(context.Context, []string) (map[string]V, error)) (map[string]V, error) {
	type batchResult struct {
		values map[string]V
		err    error
		idx    int
	}

	resultCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			values, err := fetch(ctx, batch)
			resultCh <- batchResult{values: values, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := make(map[string]V)
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("batch %d: %w", r.idx, r.err)
			}
			continue
		}
		for k, v := range r.values {
			result[k] = v
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// splitBatches divide tokenIDs en slices de tamaño máximo size.
func splitBatches(tokenIDs []string, size int) [][]string {
	if size <= 0 {
		size = batchSize
	}
	batches := make([][]string, 0, (len(tokenIDs)+size-1)/size)
	for i := 0; i < len(tokenIDs); i += size {
		end := min(i+size, len(tokenIDs))
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}

func tokenBody(tokenIDs []string) []tokenRequest {
	body := make([]tokenRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = tokenRequest{TokenID: id}
	}
	return body
}

// fetchBooksBatch hace un POST /books para un batch de token_ids.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	var resp []orderBookResponse
	if err := c.api.Post(ctx, c.booksLimiter, c.clobBase+booksPath, tokenBody(tokenIDs), &resp); err != nil {
		return nil, fmt.Errorf("POST /books: %w", err)
	}
	return mapOrderBooks(resp), nil
}

// fetchMidpointsBatch hace un POST /midpoints para un batch de token_ids.
func (c *Client) fetchMidpointsBatch(ctx context.Context, tokenIDs []string) (map[string]float64, error) {
	var resp midpointsResponse
	if err := c.api.Post(ctx, c.booksLimiter, c.clobBase+midpointsPath, tokenBody(tokenIDs), &resp); err != nil {
		return nil, fmt.Errorf("POST /midpoints: %w", err)
	}
	return mapMidpoints(resp), nil
}
