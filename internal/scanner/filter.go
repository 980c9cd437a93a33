package scanner

import (
	"strings"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// DefaultCryptoTerms mantiene el scan centrado en mercados cripto.
var DefaultCryptoTerms = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "crypto", "binance", "coinbase",
}

// FilterConfig contiene los parámetros configurables de filtrado.
type FilterConfig struct {
	// Query debe aparecer en la pregunta, el slug o la categoría. Vacío = sin filtro.
	Query string
	// CryptoTerms: al menos uno debe aparecer en el texto del mercado. Vacío = sin filtro.
	CryptoTerms            []string
	MinLiquidity           float64
	MinVolume              float64
	RequireAcceptingOrders bool
	RequireOrderBook       bool
	// MinHoursToResolution descarta mercados que se resuelven antes de X horas.
	MinHoursToResolution float64
}

// DefaultFilterConfig devuelve una configuración de filtrado conservadora.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Query:                  "bitcoin",
		CryptoTerms:            DefaultCryptoTerms,
		MinLiquidity:           50_000,
		MinVolume:              100_000,
		RequireAcceptingOrders: true,
		RequireOrderBook:       true,
	}
}

// Filter aplica los filtros configurados sobre los snapshots de un ciclo.
type Filter struct {
	cfg   FilterConfig
	query string
	terms []string
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	f := &Filter{cfg: cfg, query: strings.ToLower(strings.TrimSpace(cfg.Query))}
	for _, t := range cfg.CryptoTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

// Apply devuelve los mercados que pasan todos los filtros, en el mismo orden.
func (f *Filter) Apply(markets []domain.MarketSnapshot) []domain.MarketSnapshot {
	result := make([]domain.MarketSnapshot, 0, len(markets))
	for _, m := range markets {
		if f.passes(m) {
			result = append(result, m)
		}
	}
	return result
}

// passes devuelve true si el mercado supera todos los criterios.
func (f *Filter) passes(m domain.MarketSnapshot) bool {
	if !m.Active || m.Closed {
		return false
	}
	if f.cfg.RequireAcceptingOrders && !m.AcceptingOrders {
		return false
	}
	if f.cfg.RequireOrderBook && !m.EnableOrderBook {
		return false
	}
	if m.Liquidity < f.cfg.MinLiquidity || m.Volume < f.cfg.MinVolume {
		return false
	}
	if m.YesTokenID == "" || m.NoTokenID == "" {
		return false
	}
	if f.cfg.MinHoursToResolution > 0 {
		hours := m.HoursToResolution()
		if hours > 0 && hours < f.cfg.MinHoursToResolution {
			return false
		}
	}

	text := strings.ToLower(strings.Join([]string{m.Question, m.Slug, m.Category}, " "))
	if f.query != "" && !strings.Contains(text, f.query) {
		return false
	}
	if len(f.terms) == 0 {
		return true
	}
	for _, t := range f.terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
