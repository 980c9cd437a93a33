package domain

import "time"

// Account es la cuenta única del ledger.
type Account struct {
	StartingCapital float64
	Cash            float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountSummary combina la cuenta con el valor de mercado de las posiciones.
type AccountSummary struct {
	Account
	OpenPositions int
	MarkValue     float64
	Equity        float64
	PnL           float64
}

// Summarize calcula equity = cash + Σ mark value y PnL contra el capital inicial.
func Summarize(acct Account, open []Trade, vals []Valuation) AccountSummary {
	s := AccountSummary{Account: acct, OpenPositions: len(open)}
	for _, v := range vals {
		s.MarkValue += v.MarkValue
	}
	s.Equity = acct.Cash + s.MarkValue
	s.PnL = s.Equity - acct.StartingCapital
	return s
}

// History resume los trades cerrados.
type History struct {
	Trades      []Trade
	RealizedPnL float64
	Wins        int
	WinRate     float64
}

// NewHistory construye el resumen a partir de trades cerrados.
func NewHistory(closed []Trade) History {
	h := History{Trades: closed}
	for _, t := range closed {
		if t.RealizedPnL == nil {
			continue
		}
		h.RealizedPnL += *t.RealizedPnL
		if *t.RealizedPnL > 0 {
			h.Wins++
		}
	}
	if len(closed) > 0 {
		h.WinRate = float64(h.Wins) / float64(len(closed))
	}
	return h
}

// Run es el registro de un ciclo de scan.
type Run struct {
	ID             string
	Seq            int
	At             time.Time
	Mode           string
	Model          string
	Sizer          string
	ExperimentTag  string
	Query          string
	MarketsScanned int
	Opportunities  int
	Signals        int
	Params         map[string]any
}
