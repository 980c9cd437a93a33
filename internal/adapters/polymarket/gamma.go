package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

const gammaMarketsPath = "/markets"

// FetchMarkets devuelve hasta limit mercados activos y sin cerrar de Gamma.
// Los mercados sin dos token IDs se descartan. Los midpoints quedan vacíos.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	q := url.Values{}
	q.Set("active", "true")
	q.Set("closed", "false")
	q.Set("limit", strconv.Itoa(limit))
	u := c.gammaBase + gammaMarketsPath + "?" + q.Encode()

	var resp []gammaMarket
	if err := c.api.Get(ctx, c.gammaLimiter, u, &resp); err != nil {
		return nil, fmt.Errorf("gamma.FetchMarkets: %w", err)
	}

	now := time.Now().UTC()
	markets := make([]domain.MarketSnapshot, 0, len(resp))
	skipped := 0
	for _, gm := range resp {
		m, ok := mapGammaMarket(gm, now)
		if !ok {
			skipped++
			continue
		}
		markets = append(markets, m)
	}

	slog.Debug("gamma markets fetched",
		"received", len(resp),
		"usable", len(markets),
		"skipped", skipped,
	)
	return markets, nil
}
