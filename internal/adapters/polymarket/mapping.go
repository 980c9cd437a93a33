package polymarket

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyedge/internal/domain"
)

// mapGammaMarket convierte un gammaMarket DTO a domain.MarketSnapshot.
// Devuelve false si el mercado no tiene los dos token IDs del CLOB.
func mapGammaMarket(gm gammaMarket, scannedAt time.Time) (domain.MarketSnapshot, bool) {
	tokens := parseStringList(gm.ClobTokenIDs)
	if len(tokens) < 2 || tokens[0] == "" || tokens[1] == "" {
		return domain.MarketSnapshot{}, false
	}

	id := gm.ID
	if id == "" {
		id = gm.ConditionID
	}

	m := domain.MarketSnapshot{
		ID:              id,
		Slug:            gm.Slug,
		Question:        gm.Question,
		Category:        gm.Category,
		YesTokenID:      tokens[0],
		NoTokenID:       tokens[1],
		Active:          gm.Active,
		Closed:          gm.Closed,
		AcceptingOrders: gm.AcceptingOrders,
		EnableOrderBook: gm.EnableOrderBook,
		ScannedAt:       scannedAt,
	}
	if v, err := gm.LiquidityNum.Float64(); err == nil {
		m.Liquidity = v
	}
	if v, err := gm.VolumeNum.Float64(); err == nil {
		m.Volume = v
	}

	end := gm.EndDate
	if end == "" {
		end = gm.EndDateISO
	}
	m.EndDate = parseEndDate(end)
	return m, true
}

// parseStringList acepta un array JSON codificado como string.
func parseStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}

// parseEndDate prueba los formatos que usa Polymarket. Zero si ninguno encaja.
func parseEndDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.000Z",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// mapMidpoints convierte la respuesta de /midpoints descartando mids no numéricos.
func mapMidpoints(raw midpointsResponse) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for tokenID, mid := range raw {
		v, err := strconv.ParseFloat(mid, 64)
		if err != nil {
			continue
		}
		out[tokenID] = v
	}
	return out
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		result[r.AssetID] = domain.OrderBook{
			TokenID: r.AssetID,
			Bids:    mapBookEntries(r.Bids, false),
			Asks:    mapBookEntries(r.Asks, true),
		}
	}
	return result
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price, _ := strconv.ParseFloat(r.Price, 64)
		size, _ := strconv.ParseFloat(r.Size, 64)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
