package domain

// Params son los parámetros numéricos de un modelo o sizer tal como vienen de config.
type Params map[string]float64

// Get devuelve el valor de key, o def si no está.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}
