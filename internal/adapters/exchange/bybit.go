package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"golang.org/x/time/rate"
)

const (
	defaultBybitBase   = "https://api.bybit.com"
	defaultBybitSymbol = "BTCUSDT"
	bybitRatePerSec    = 10
)

// Bybit es el feed del perpetuo lineal de Bybit (ports.DerivativeFeed).
type Bybit struct {
	api     *httpx.Client
	base    string
	symbol  string
	limiter *rate.Limiter
}

// NewBybit crea un feed para symbol ("BTCUSDT" si está vacío).
func NewBybit(base, symbol string, opts ...httpx.Option) *Bybit {
	if base == "" {
		base = defaultBybitBase
	}
	if symbol == "" {
		symbol = defaultBybitSymbol
	}
	return &Bybit{
		api:     httpx.New(opts...),
		base:    strings.TrimRight(base, "/"),
		symbol:  symbol,
		limiter: httpx.NewLimiter(bybitRatePerSec, 5),
	}
}

// Name implementa ports.DerivativeFeed.
func (b *Bybit) Name() string { return "bybit_linear" }

type bybitTickers struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	} `json:"result"`
}

// DerivativePrice devuelve el lastPrice del perpetuo.
func (b *Bybit) DerivativePrice(ctx context.Context) (float64, error) {
	u := b.base + "/v5/market/tickers?category=linear&symbol=" + url.QueryEscape(b.symbol)

	var resp bybitTickers
	if err := b.api.Get(ctx, b.limiter, u, &resp); err != nil {
		return 0, fmt.Errorf("bybit.DerivativePrice: %w", err)
	}
	if resp.RetCode != 0 {
		return 0, fmt.Errorf("bybit.DerivativePrice: retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	if len(resp.Result.List) == 0 {
		return 0, fmt.Errorf("bybit.DerivativePrice: no ticker for %s", b.symbol)
	}

	px, err := strconv.ParseFloat(resp.Result.List[0].LastPrice, 64)
	if err != nil || px <= 0 {
		return 0, fmt.Errorf("bybit.DerivativePrice: invalid lastPrice %q", resp.Result.List[0].LastPrice)
	}
	return px, nil
}
