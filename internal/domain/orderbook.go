package domain

// OrderBook representa el libro de órdenes de un token.
type OrderBook struct {
	TokenID string
	Bids    []BookEntry // ordenados mayor a menor precio
	Asks    []BookEntry // ordenados menor a mayor precio
}

// BookEntry es un nivel de precio en el orderbook.
type BookEntry struct {
	Price float64
	Size  float64
}

func (e BookEntry) valid() bool {
	return e.Price > 0 && e.Size > 0
}

// BestAsk devuelve el primer ask con precio y tamaño positivos, o 0.
func (ob OrderBook) BestAsk() float64 {
	return bestPrice(ob.Asks)
}

// AskDepthUSD es el notional total disponible en el lado ask.
func (ob OrderBook) AskDepthUSD() float64 {
	var total float64
	for _, a := range ob.Asks {
		if a.valid() {
			total += a.Price * a.Size
		}
	}
	return total
}

func bestPrice(levels []BookEntry) float64 {
	for _, l := range levels {
		if l.valid() {
			return l.Price
		}
	}
	return 0
}
