package scanner

import (
	"testing"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
	"github.com/stretchr/testify/assert"
)

func liquidMarket(slug, question string) domain.MarketSnapshot {
	return domain.MarketSnapshot{
		Slug:            slug,
		Question:        question,
		YesTokenID:      "y",
		NoTokenID:       "n",
		Liquidity:       60_000,
		Volume:          150_000,
		Active:          true,
		AcceptingOrders: true,
		EnableOrderBook: true,
	}
}

func TestFilter_Apply(t *testing.T) {
	base := liquidMarket("bitcoin-above-100k", "Will Bitcoin be above $100,000 on June 30?")

	closed := base
	closed.Slug, closed.Closed = "closed", true

	notAccepting := base
	notAccepting.Slug, notAccepting.AcceptingOrders = "not-accepting", false

	noBook := base
	noBook.Slug, noBook.EnableOrderBook = "no-book", false

	thin := base
	thin.Slug, thin.Liquidity = "thin", 49_999

	quiet := base
	quiet.Slug, quiet.Volume = "quiet", 10

	noTokens := base
	noTokens.Slug, noTokens.NoTokenID = "no-tokens", ""

	offTopic := liquidMarket("election-2028", "Who will win the 2028 election?")

	f := NewFilter(DefaultFilterConfig())
	got := f.Apply([]domain.MarketSnapshot{base, closed, notAccepting, noBook, thin, quiet, noTokens, offTopic})

	assert.Len(t, got, 1)
	assert.Equal(t, "bitcoin-above-100k", got[0].Slug)
}

func TestFilter_OptionalRequirements(t *testing.T) {
	m := liquidMarket("bitcoin-150k", "Will BTC hit $150k?")
	m.AcceptingOrders = false
	m.EnableOrderBook = false

	cfg := DefaultFilterConfig()
	cfg.RequireAcceptingOrders = false
	cfg.RequireOrderBook = false
	assert.Len(t, NewFilter(cfg).Apply([]domain.MarketSnapshot{m}), 1)
}

func TestFilter_QueryAndTermsAreCaseInsensitive(t *testing.T) {
	m := liquidMarket("eth-5k", "Will ETHEREUM reach $5,000?")

	cfg := DefaultFilterConfig()
	cfg.Query = "  Ethereum "
	assert.Len(t, NewFilter(cfg).Apply([]domain.MarketSnapshot{m}), 1)

	cfg.Query = "bitcoin"
	assert.Empty(t, NewFilter(cfg).Apply([]domain.MarketSnapshot{m}))

	cfg.Query = ""
	cfg.CryptoTerms = []string{"doge"}
	assert.Empty(t, NewFilter(cfg).Apply([]domain.MarketSnapshot{m}))

	cfg.CryptoTerms = nil
	assert.Len(t, NewFilter(cfg).Apply([]domain.MarketSnapshot{m}), 1)
}

func TestFilter_MinHoursToResolution(t *testing.T) {
	now := time.Now()
	soon := liquidMarket("bitcoin-soon", "Will bitcoin be above $90k today?")
	soon.ScannedAt, soon.EndDate = now, now.Add(2*time.Hour)
	later := liquidMarket("bitcoin-later", "Will bitcoin be above $90k this month?")
	later.ScannedAt, later.EndDate = now, now.Add(72*time.Hour)

	cfg := DefaultFilterConfig()
	cfg.MinHoursToResolution = 24
	got := NewFilter(cfg).Apply([]domain.MarketSnapshot{soon, later})
	assert.Len(t, got, 1)
	assert.Equal(t, "bitcoin-later", got[0].Slug)
}
