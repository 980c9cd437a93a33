package polymarket

import (
	"github.com/alejandrodnm/polyedge/internal/adapters/httpx"
	"golang.org/x/time/rate"
)

const (
	defaultCLOBBase  = "https://clob.polymarket.com"
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Rate limits al 60% de los límites reales documentados.
	// CLOB /books y /midpoints: 500/10s → 300/10s → 30/s
	booksRatePerSec = 30
	// Gamma /markets: 300/10s → 180/10s → 18/s
	gammaRatePerSec = 18
	// CLOB general (neg-risk, order, auth): 9000/10s → 5400/10s → 540/s
	generalRatePerSec = 540
)

// Client es el cliente público de Polymarket (Gamma + CLOB) con rate limiting y retries.
type Client struct {
	api          *httpx.Client
	clobBase     string
	gammaBase    string
	clobLimiter  *rate.Limiter
	gammaLimiter *rate.Limiter
	booksLimiter *rate.Limiter
}

// NewClient crea un Client con los base URLs dados.
// Si clobBase o gammaBase están vacíos, usa los URLs de producción.
func NewClient(clobBase, gammaBase string, opts ...httpx.Option) *Client {
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		api:          httpx.New(opts...),
		clobBase:     clobBase,
		gammaBase:    gammaBase,
		clobLimiter:  httpx.NewLimiter(generalRatePerSec, 50),
		gammaLimiter: httpx.NewLimiter(gammaRatePerSec, 10),
		booksLimiter: httpx.NewLimiter(booksRatePerSec, 5),
	}
}
