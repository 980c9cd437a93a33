// Package gate decide qué candidatos se convierten en señal: exige que el edge
// neto persista varios ciclos y aplica un cooldown por mercado que solo se
// salta con una mejora mínima del edge.
package gate

import "math"

// noPriorSignal es el ciclo de la última señal para un mercado sin historial.
const noPriorSignal = -1_000_000_000

// Reason es el motivo de una decisión del gate.
type Reason string

const (
	ReasonFire           Reason = "fire"
	ReasonBelowThreshold Reason = "below_threshold"
	ReasonNotPersistent  Reason = "insufficient_persistence"
	ReasonCooldown       Reason = "cooldown"
)

// Config son los parámetros del gate.
type Config struct {
	Threshold         float64 // edge neto mínimo
	MinPersistRuns    int
	CooldownRuns      int
	MinImprovementBps float64
}

// DefaultConfig devuelve los parámetros por defecto.
func DefaultConfig() Config {
	return Config{
		Threshold:         0.012,
		MinPersistRuns:    2,
		CooldownRuns:      5,
		MinImprovementBps: 25,
	}
}

// Decision es el resultado de consultar el gate para un mercado.
type Decision struct {
	Slug           string
	Reason         Reason
	NetEdge        float64
	Persistence    int
	RunsSinceLast  int
	ImprovementBps float64 // +Inf si no hubo señal previa
}

// Fire devuelve true si la señal debe dispararse.
func (d Decision) Fire() bool {
	return d.Reason == ReasonFire
}

type lastSignal struct {
	cycle int
	edge  float64
}

// Gate mantiene el estado por mercado. No es seguro para uso concurrente:
// el orquestador es el único escritor.
type Gate struct {
	cfg     Config
	streaks map[string]int
	last    map[string]lastSignal
}

// New crea un Gate vacío.
func New(cfg Config) *Gate {
	if cfg.MinPersistRuns < 1 {
		cfg.MinPersistRuns = 1
	}
	return &Gate{
		cfg:     cfg,
		streaks: make(map[string]int),
		last:    make(map[string]lastSignal),
	}
}

// Config devuelve la configuración efectiva.
func (g *Gate) Config() Config {
	return g.cfg
}

// Advance actualiza las rachas con los edges netos del ciclo: la racha crece
// si el edge supera el umbral y vuelve a cero si no. Los mercados con racha
// que no aparecen en edges también vuelven a cero.
func (g *Gate) Advance(edges map[string]float64) {
	for slug := range g.streaks {
		if _, seen := edges[slug]; !seen {
			g.streaks[slug] = 0
		}
	}
	for slug, edge := range edges {
		if edge >= g.cfg.Threshold {
			g.streaks[slug]++
		} else {
			g.streaks[slug] = 0
		}
	}
}

// Check evalúa un candidato en el ciclo dado sin modificar el estado.
func (g *Gate) Check(slug string, netEdge float64, cycle int) Decision {
	d := Decision{
		Slug:           slug,
		NetEdge:        netEdge,
		Persistence:    g.streaks[slug],
		ImprovementBps: math.Inf(1),
	}

	prev, ok := g.last[slug]
	if !ok {
		prev = lastSignal{cycle: noPriorSignal}
	}
	d.RunsSinceLast = cycle - prev.cycle
	if ok {
		d.ImprovementBps = (netEdge - prev.edge) * 1e4
	}

	switch {
	case netEdge < g.cfg.Threshold:
		d.Reason = ReasonBelowThreshold
	case d.Persistence < g.cfg.MinPersistRuns:
		d.Reason = ReasonNotPersistent
	case d.RunsSinceLast < g.cfg.CooldownRuns && d.ImprovementBps < g.cfg.MinImprovementBps:
		d.Reason = ReasonCooldown
	default:
		d.Reason = ReasonFire
	}
	return d
}

// Commit registra que la señal del mercado se disparó en cycle con netEdge.
func (g *Gate) Commit(slug string, netEdge float64, cycle int) {
	g.last[slug] = lastSignal{cycle: cycle, edge: netEdge}
}

// Persistence devuelve la racha actual del mercado.
func (g *Gate) Persistence(slug string) int {
	return g.streaks[slug]
}

// LastSignal devuelve el ciclo y edge de la última señal, si la hubo.
func (g *Gate) LastSignal(slug string) (cycle int, edge float64, ok bool) {
	l, ok := g.last[slug]
	return l.cycle, l.edge, ok
}
