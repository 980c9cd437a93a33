package domain

// Modos de ejecución.
const (
	ModePaper = "paper"
	ModeLive  = "live"
)

// Evaluation es el resultado de pasar un mercado por modelo, sizer y costes.
type Evaluation struct {
	Snapshot    MarketSnapshot
	Signal      Signal
	Order       SizedOrder
	Sized       bool
	Cost        CostBreakdown
	NetEdge     float64
	Persistence int
}

// Fields devuelve la evaluación como pares para el event log.
func (e Evaluation) Fields() map[string]any {
	return map[string]any{
		"market_id":    e.Snapshot.ID,
		"question":     e.Snapshot.Question,
		"side":         string(e.Signal.Side),
		"token_id":     e.Signal.TokenID,
		"market_price": e.Signal.MarketPrice,
		"model_price":  e.Signal.ModelPrice,
		"gross_edge":   e.Signal.Edge,
		"confidence":   e.Signal.Confidence,
		"order_usd":    e.Order.OrderUSD,
		"cost":         e.Cost,
		"net_edge":     e.NetEdge,
		"signal_meta":  e.Signal.Metadata,
	}
}

// CycleSummary es lo que devuelve un ciclo del orquestador.
type CycleSummary struct {
	RunID          string
	Seq            int
	Mode           string
	MarketsScanned int
	Evaluated      int
	OverThreshold  int
	Signals        int
	Top            []Evaluation
	Actions        []Action
	Cash           float64
}

// Action es lo que ocurrió con un candidato que llegó al gate.
type Action struct {
	Slug    string
	Side    Side
	NetEdge float64
	Result  string // acción del event log que la describe
	TradeID int64
	Detail  string
}
