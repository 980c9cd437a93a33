// Package exchange implementa los feeds de precio de referencia sobre las APIs
// REST públicas de Kraken (spot + velas horarias) y Bybit (perpetuo lineal).
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"golang.org/x/time/rate"
)

const (
	defaultKrakenBase = "https://api.kraken.com"
	defaultKrakenPair = "XBTUSD"

	// La API pública de Kraken tolera ~1 req/s por IP.
	krakenRatePerSec = 1
	ohlcIntervalMins = 60
)

// Kraken es el feed spot de Kraken (ports.SpotFeed).
type Kraken struct {
	api     *httpx.Client
	base    string
	pair    string
	limiter *rate.Limiter
}

// NewKraken crea un feed para pair ("XBTUSD" si está vacío).
func NewKraken(base, pair string, opts ...httpx.Option) *Kraken {
	if base == "" {
		base = defaultKrakenBase
	}
	if pair == "" {
		pair = defaultKrakenPair
	}
	return &Kraken{
		api:     httpx.New(opts...),
		base:    strings.TrimRight(base, "/"),
		pair:    pair,
		limiter: httpx.NewLimiter(krakenRatePerSec, 2),
	}
}

// Name implementa ports.SpotFeed.
func (k *Kraken) Name() string { return "kraken_spot" }

type krakenEnvelope struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

func (e krakenEnvelope) err() error {
	if len(e.Error) > 0 {
		return fmt.Errorf("kraken: %s", strings.Join(e.Error, "; "))
	}
	return nil
}

// SpotPrice devuelve el último precio negociado (campo "c" del ticker).
func (k *Kraken) SpotPrice(ctx context.Context) (float64, error) {
	u := k.base + "/0/public/Ticker?pair=" + url.QueryEscape(k.pair)

	var env krakenEnvelope
	if err := k.api.Get(ctx, k.limiter, u, &env); err != nil {
		return 0, fmt.Errorf("kraken.SpotPrice: %w", err)
	}
	if err := env.err(); err != nil {
		return 0, fmt.Errorf("kraken.SpotPrice: %w", err)
	}

	// Kraken renombra el par (XBTUSD → XXBTZUSD); tomamos el único resultado.
	for _, raw := range env.Result {
		var t struct {
			C []string `json:"c"`
		}
		if err := json.Unmarshal(raw, &t); err != nil || len(t.C) == 0 {
			continue
		}
		px, err := strconv.ParseFloat(t.C[0], 64)
		if err != nil || px <= 0 {
			return 0, fmt.Errorf("kraken.SpotPrice: invalid last price %q", t.C[0])
		}
		return px, nil
	}
	return 0, errors.New("kraken.SpotPrice: empty ticker result")
}

// OHLC devuelve el feed de velas horarias del mismo par.
func (k *Kraken) OHLC() *KrakenOHLC {
	return &KrakenOHLC{k: k}
}

// KrakenOHLC es el feed de cierres horarios de Kraken (ports.CandleFeed).
type KrakenOHLC struct {
	k *Kraken
}

// Name implementa ports.CandleFeed.
func (o *KrakenOHLC) Name() string { return "kraken_ohlc_1h" }

// Closes devuelve los últimos count cierres horarios, del más antiguo al más
// reciente. Las filas con cierre no positivo o ilegible se descartan.
func (o *KrakenOHLC) Closes(ctx context.Context, count int) ([]float64, error) {
	u := fmt.Sprintf("%s/0/public/OHLC?pair=%s&interval=%d", o.k.base, url.QueryEscape(o.k.pair), ohlcIntervalMins)

	var env krakenEnvelope
	if err := o.k.api.Get(ctx, o.k.limiter, u, &env); err != nil {
		return nil, fmt.Errorf("kraken.Closes: %w", err)
	}
	if err := env.err(); err != nil {
		return nil, fmt.Errorf("kraken.Closes: %w", err)
	}

	for key, raw := range env.Result {
		if key == "last" {
			continue
		}
		var rows [][]any
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("kraken.Closes: decode %s: %w", key, err)
		}
		closes := make([]float64, 0, len(rows))
		for _, row := range rows {
			if len(row) < 5 {
				continue
			}
			if c := toFloat(row[4]); c > 0 {
				closes = append(closes, c)
			}
		}
		if count > 0 && len(closes) > count {
			closes = closes[len(closes)-count:]
		}
		return closes, nil
	}
	return nil, errors.New("kraken.Closes: empty OHLC result")
}

// toFloat acepta los precios de Kraken como string o número.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	case float64:
		return x
	}
	return 0
}
