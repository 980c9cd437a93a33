package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormCDF_KnownValues(t *testing.T) {
	assert.InDelta(t, 0.5, NormCDF(0), 1e-12)
	assert.InDelta(t, 0.8413, NormCDF(1), 1e-4)
	assert.InDelta(t, 0.0228, NormCDF(-2), 1e-4)
}

func TestProbabilityAbove_AtTheMoney(t *testing.T) {
	// S = K, mu = 0, sigma = 0.5, t = 1 → z = -0.25
	p := ProbabilityAbove(100, 100, 0, 0.5, 1)
	assert.InDelta(t, NormCDF(-0.25), p, 1e-12)
}

func TestProbabilityAbove_DeepInTheMoney(t *testing.T) {
	p := ProbabilityAbove(150000, 100000, 0, 0.5, 1.0/365)
	assert.Greater(t, p, 0.999)
}

func TestProbabilityAbove_DecreasesWithStrike(t *testing.T) {
	prev := 1.0
	for _, k := range []float64{80000, 100000, 120000} {
		above := ProbabilityAbove(100000, k, 0.05, 0.6, 0.1)
		assert.Less(t, above, prev)
		assert.GreaterOrEqual(t, above, 0.0)
		prev = above
	}
}

func TestProbabilityAbove_FloorsSigmaAndRejectsBadInputs(t *testing.T) {
	// sigma 0 se trata como 1e-6: prácticamente determinista
	assert.InDelta(t, 1.0, ProbabilityAbove(101, 100, 0, 0, 1), 1e-9)
	assert.InDelta(t, 0.0, ProbabilityAbove(99, 100, 0, 0, 1), 1e-9)
	assert.Equal(t, 0.0, ProbabilityAbove(100, 100, 0, 0.5, 0))
	assert.Equal(t, 0.0, ProbabilityAbove(100, 0, 0, 0.5, 1))
}

func TestKellyFraction(t *testing.T) {
	assert.InDelta(t, 0.2, KellyFraction(0.6, 0.5), 1e-12)
	assert.Equal(t, 0.0, KellyFraction(0.4, 0.5), "sin edge no hay apuesta")
	assert.Equal(t, 0.0, KellyFraction(0.5, 0.5))
	// q fuera de rango se recorta en vez de dividir por cero
	f := KellyFraction(1, 1)
	assert.False(t, math.IsNaN(f))
	assert.GreaterOrEqual(t, f, 0.0)
	assert.LessOrEqual(t, f, 1.0)
	assert.LessOrEqual(t, KellyFraction(2, 0), 1.0)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(3, 0, 1))
	assert.Equal(t, 0.3, Clamp(0.3, 0, 1))
}
