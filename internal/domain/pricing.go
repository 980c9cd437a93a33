package domain

import "math"

const (
	minSigma = 1e-6
	minSpot  = 1e-9
)

// NormCDF es la CDF de la normal estándar.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// ProbabilityAbove devuelve P(S_T >= K) bajo un proceso log-normal con
// drift anual mu y volatilidad anual sigma, a t años.
// Devuelve 0 si t o strike no son positivos.
func ProbabilityAbove(spot, strike, mu, sigma, t float64) float64 {
	if t <= 0 || strike <= 0 {
		return 0
	}
	sigma = math.Max(sigma, minSigma)
	spot = math.Max(spot, minSpot)
	z := (math.Log(spot/strike) + (mu-0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	return NormCDF(z)
}

// KellyFraction es la fracción de Kelly para comprar a precio q un evento de
// probabilidad p con payout 1. Siempre en [0, 1].
func KellyFraction(p, q float64) float64 {
	q = Clamp(q, 1e-6, 0.999999)
	p = Clamp(p, 0, 1)
	return Clamp((p-q)/(1-q), 0, 1)
}

// Clamp limita v a [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
