package domain

import "time"

// SecondsPerYear es la base de años usada para el tiempo a vencimiento.
const SecondsPerYear = 365 * 24 * 3600

// MarketSnapshot es la vista de un mercado binario en un ciclo de scan.
// YesMid y NoMid vienen del lookup batch de midpoints, no del feed de mercados.
type MarketSnapshot struct {
	ID              string
	Slug            string
	Question        string
	Category        string
	EndDate         time.Time // zero si el feed no la trae o no se pudo parsear
	YesTokenID      string
	NoTokenID       string
	YesMid          float64
	NoMid           float64
	Liquidity       float64
	Volume          float64
	Active          bool
	Closed          bool
	AcceptingOrders bool
	EnableOrderBook bool
	ScannedAt       time.Time
}

// TokenFor devuelve el token del lado dado.
func (m MarketSnapshot) TokenFor(side Side) string {
	if side == SideNo {
		return m.NoTokenID
	}
	return m.YesTokenID
}

// MidFor devuelve el midpoint del lado dado.
func (m MarketSnapshot) MidFor(side Side) float64 {
	if side == SideNo {
		return m.NoMid
	}
	return m.YesMid
}

// HasMids devuelve true si ambos lados tienen midpoint dentro de (0, 1).
func (m MarketSnapshot) HasMids() bool {
	return m.YesMid > 0 && m.YesMid < 1 && m.NoMid > 0 && m.NoMid < 1
}

// TimeToExpiryYears devuelve los años entre ScannedAt y EndDate.
// El resultado nunca baja de minimum; devuelve 0 si EndDate es desconocido
// o ya pasó, para que el caller pueda descartar el mercado.
func (m MarketSnapshot) TimeToExpiryYears(minimum time.Duration) float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	at := m.ScannedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	remaining := m.EndDate.Sub(at)
	if remaining <= 0 {
		return 0
	}
	if remaining < minimum {
		remaining = minimum
	}
	return remaining.Seconds() / SecondsPerYear
}

// HoursToResolution devuelve las horas hasta EndDate, 0 si no está definido.
func (m MarketSnapshot) HoursToResolution() float64 {
	if m.EndDate.IsZero() {
		return 0
	}
	h := m.EndDate.Sub(m.ScannedAt).Hours()
	if h < 0 {
		return 0
	}
	return h
}
