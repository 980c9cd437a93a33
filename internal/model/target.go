package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Direction indica qué lado del strike resuelve YES.
type Direction string

const (
	AtOrAbove Direction = "above_or_hit"
	AtOrBelow Direction = "below_or_hit"
)

// Target es el strike y la dirección extraídos de una pregunta.
type Target struct {
	Strike    float64
	Direction Direction
}

var (
	strikeRe     = regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]+)?)([mk]?)`)
	belowMarkers = []string{"below", "under", "dip", "drop", "fall"}
)

// ParseTarget extrae el strike de preguntas del tipo "Will Bitcoin reach $120k
// by June?". Las preguntas de orden relativo ("... before ...") no se
// interpretan. Devuelve false si no hay un strike positivo.
func ParseTarget(question string) (Target, bool) {
	q := strings.ToLower(question)
	if strings.Contains(q, "before") {
		return Target{}, false
	}

	m := strikeRe.FindStringSubmatch(q)
	if m == nil {
		return Target{}, false
	}
	strike, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return Target{}, false
	}
	switch m[2] {
	case "k":
		strike *= 1e3
	case "m":
		strike *= 1e6
	}
	if strike <= 0 {
		return Target{}, false
	}

	dir := AtOrAbove
	for _, w := range belowMarkers {
		if strings.Contains(q, w) {
			dir = AtOrBelow
			break
		}
	}
	return Target{Strike: strike, Direction: dir}, true
}
